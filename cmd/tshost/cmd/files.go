package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jbarket/atom-typescript/internal/host"
)

// fileEntry is one row of the files listing.
type fileEntry struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Open    bool   `json:"open"`
}

func filesCommand() *cli.Command {
	return &cli.Command{
		Name:  "files",
		Usage: "Resolve and list the tracked project files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to tsconfig.json (discovered in the working directory by default)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Override compilerOptions.target",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			project, err := loadProject(cmd.String("config"), cmd.String("target"))
			if err != nil {
				return err
			}

			registry := host.New(project)
			if _, err := registry.LoadProject(); err != nil {
				return fmt.Errorf("scan project: %w", err)
			}

			entries := make([]fileEntry, 0)
			for _, path := range registry.FileNames() {
				entries = append(entries, fileEntry{
					Path:    path,
					Version: registry.Version(path),
					Open:    registry.IsOpen(path),
				})
			}

			switch cmd.String("format") {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			default:
				for _, e := range entries {
					fmt.Printf("%s\tv%s\n", e.Path, e.Version)
				}
			}
			return nil
		},
	}
}
