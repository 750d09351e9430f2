package main

import (
	"context"
	"fmt"

	"budgetlite/internal/cli"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [YYYY-MM]",
	Short: "Show the per-category breakdown of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			month, err := monthArg(app, args)
			if err != nil {
				return err
			}
			report, err := app.Stats.MonthStats(ctx, month)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderBreakdown(report, app.Formatter))
			return nil
		})
	},
}

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List the months that have expenses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			months, err := app.Stats.Months(ctx)
			if err != nil {
				return err
			}
			for _, m := range months {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", m, m.Label())
			}
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default categories in an empty ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			n, err := app.Ledger.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger already has categories, nothing seeded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories.\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, monthsCmd, seedCmd)
}
