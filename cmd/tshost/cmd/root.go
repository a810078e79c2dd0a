package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jbarket/atom-typescript/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "tshost",
		Usage:   "Versioned document host for incremental TypeScript analysis",
		Version: version.Version(),
		Description: `tshost tracks the evolving text of project source files and serves
an incremental analysis engine with snapshots and collapsed change ranges
instead of full re-reads.

Examples:
  tshost lsp --stdio
  tshost files --config tsconfig.json
  tshost files --format json`,
		Commands: []*cli.Command{
			lspCommand(),
			filesCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
