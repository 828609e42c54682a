// Package main provides the entry point for the Surprise Me web frontend
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/fx"

	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/internal/infrastructure/container"
)

func main() {
	cmd := &cli.Command{
		Name:  "surprise-web",
		Usage: "Serve the Surprise Me recipe finder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (default: ./config.yaml, ./config/config.yaml, /etc/surprise/config.yaml)",
				Sources: cli.EnvVars(config.EnvPrefix + "_CONFIG"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app := fx.New(
				fx.NopLogger,
				container.Module(cmd.String("config")),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
