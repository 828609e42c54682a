package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/surpriseme/recipes/internal/domain/filter"
)

func optionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "options",
		Usage: "List the meal types and filter tags offered by the web form",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tTAG\tLABEL")
			for _, m := range filter.MealTypes() {
				fmt.Fprintf(tw, "meal\t%s\t%s\n", m, m)
			}
			for _, o := range filter.AllergyOptions() {
				fmt.Fprintf(tw, "allergy\t%s\t%s\n", o.ID, o.Label)
			}
			for _, o := range filter.DietOptions() {
				fmt.Fprintf(tw, "diet\t%s\t%s\n", o.ID, o.Label)
			}
			return tw.Flush()
		},
	}
}
