package main

import (
	"context"
	"fmt"
	"strconv"

	"budgetlite/internal/cli"

	"github.com/spf13/cobra"
)

var flagIcon string

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category", "cat"},
	Short:   "List and edit categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			cats, err := app.Ledger.Categories(ctx)
			if err != nil {
				return err
			}
			usage, err := app.Ledger.CategoryUsage(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderCategories(cats, usage))
			return nil
		})
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Append a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			c, err := app.Ledger.AddCategory(ctx, args[0], flagIcon)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", c.Icon, c.Name, c.ID)
			return nil
		})
	},
}

var categoriesRenameCmd = &cobra.Command{
	Use:   "rename CATEGORY NAME",
	Short: "Rename a category, optionally changing its icon",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			c, err := resolveCategory(ctx, app, args[0])
			if err != nil {
				return err
			}
			c, err = app.Ledger.RenameCategory(ctx, c.ID, args[1], flagIcon)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %s %s\n", c.Icon, c.Name)
			return nil
		})
	},
}

var categoriesMoveCmd = &cobra.Command{
	Use:   "move CATEGORY POSITION",
	Short: "Move a category to a zero-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[1])
		}
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			c, err := resolveCategory(ctx, app, args[0])
			if err != nil {
				return err
			}
			cats, err := app.Ledger.MoveCategory(ctx, c.ID, to)
			if err != nil {
				return err
			}
			usage, err := app.Ledger.CategoryUsage(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderCategories(cats, usage))
			return nil
		})
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete CATEGORY",
	Short: "Delete a category that no expense references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			c, err := resolveCategory(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Ledger.DeleteCategory(ctx, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", c.Name)
			return nil
		})
	},
}

func init() {
	categoriesAddCmd.Flags().StringVar(&flagIcon, "icon", "", "Category icon (default 💸)")
	categoriesRenameCmd.Flags().StringVar(&flagIcon, "icon", "", "New icon (keeps the current one when empty)")

	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesRenameCmd, categoriesMoveCmd, categoriesDeleteCmd)
	rootCmd.AddCommand(categoriesCmd)
}
