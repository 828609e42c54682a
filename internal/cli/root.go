// Package cli implements the surprise command line client
package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/pkg/logger"
)

const name = "surprise"

// overridden during build with ldflags
var version = "dev"

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to a config file (default: ./config.yaml, ./config/config.yaml, /etc/surprise/config.yaml)",
	Sources: cli.EnvVars(config.EnvPrefix + "_CONFIG"),
}

var logLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Value: "warn",
	Usage: "Log level (debug, info, warn, error)",
}

// NewCommand builds the root command writing results to out and logs to
// errOut
func NewCommand(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      name,
		Version:   version,
		Usage:     "Find a random recipe for a mealtime",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
		},
		Commands: []*cli.Command{
			searchCmd(),
			optionsCmd(),
		},
	}
}

// Execute runs the CLI with the process arguments
func Execute(ctx context.Context) error {
	return NewCommand(os.Stdout, os.Stderr).Run(ctx, os.Args)
}

// newLogger writes console logs to the command's error stream
func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:       cmd.String(logLevelFlag.Name),
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}
