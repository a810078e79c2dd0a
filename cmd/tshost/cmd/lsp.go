package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/jbarket/atom-typescript/internal/config"
	"github.com/jbarket/atom-typescript/internal/host"
	"github.com/jbarket/atom-typescript/internal/lspserver"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Run the document-sync server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Use stdio transport (required; only transport for v1)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to tsconfig.json (discovered in the working directory by default)",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Override compilerOptions.target",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("stdio") {
				return fmt.Errorf("only --stdio transport is supported")
			}

			level, err := logrus.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)

			project, err := loadProject(cmd.String("config"), cmd.String("target"))
			if err != nil {
				return err
			}

			registry := host.New(project)
			return lspserver.New(registry).RunStdio(ctx)
		},
	}
}

// loadProject resolves the project configuration from an explicit path or by
// discovery in the current directory. A non-empty target overrides
// compilerOptions.target from the command line.
func loadProject(path, target string) (*config.Project, error) {
	var overrides []map[string]any
	if target != "" {
		overrides = append(overrides, map[string]any{"compilerOptions.target": target})
	}
	if path != "" {
		return config.Load(path, overrides...)
	}
	return config.Discover(".", overrides...)
}
