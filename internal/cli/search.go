package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/internal/infrastructure/edamam"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Fetch random recipes matching a set of filters",
		Description: `Runs one search against the recipe API and prints the recipes found.

Allergy and diet tags are passed through as given; see "surprise options" for
the tags the web form offers. An empty --time means no cook time preference.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "meal",
				Aliases: []string{"m"},
				Value:   filter.DefaultMeal.String(),
				Usage:   fmt.Sprintf("Meal type (supported values: %s)", mealTypeNames()),
			},
			&cli.StringSliceFlag{
				Name:    "allergy",
				Aliases: []string{"a"},
				Usage:   "Allergy tag, repeat for several",
			},
			&cli.StringSliceFlag{
				Name:    "diet",
				Aliases: []string{"d"},
				Usage:   "Diet tag, repeat for several",
			},
			&cli.StringFlag{
				Name:    "time",
				Aliases: []string{"t"},
				Value:   filter.DefaultCookTime,
				Usage:   "Maximum cook time in minutes",
			},
			formatFlag,
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the request URL with credentials redacted instead of sending it",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := Format(cmd.String(formatFlag.Name))
			if format.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", format)
			}

			cfg, err := config.Load(cmd.String(configFlag.Name))
			if err != nil {
				return err
			}

			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res := filter.Validate(filter.Submission{
				Items:    nonNil(cmd.StringSlice("allergy")),
				Diets:    nonNil(cmd.StringSlice("diet")),
				CookTime: ptr(cmd.String("time")),
				Meal:     cmd.String("meal"),
			})
			if !res.Valid {
				return fmt.Errorf("invalid search: %s", res.Error())
			}

			client := edamam.NewClient(edamam.Config{
				BaseURL: cfg.Search.BaseURL,
				Credentials: edamam.Credentials{
					AppID:  cfg.Search.AppID,
					AppKey: cfg.Search.AppKey,
				},
				Timeout: cfg.Search.Timeout,
			}, log)

			out := cmd.Root().Writer

			if cmd.Bool("dry-run") {
				sel, err := res.Submission.ApplyTo(filter.NewSelection())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, client.Request(sel).Redacted())
				return err
			}

			service := search.NewService(client, log)
			state, err := service.Submit(ctx, search.NewStore(search.InitialState()), res)
			if err != nil {
				log.Debug("Search failed", zap.Error(err))
				return fmt.Errorf("%s: %w", search.FetchFailedMessage, err)
			}

			return NewWriter(format, out).WriteRecords(state.Results.Records())
		},
	}
}

func mealTypeNames() string {
	meals := filter.MealTypes()
	names := make([]string, len(meals))
	for i, m := range meals {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func ptr(s string) *string {
	return &s
}
