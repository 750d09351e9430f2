package main

import (
	"context"
	"fmt"
	"time"

	"budgetlite/internal/cli"
	"budgetlite/internal/core"
	"budgetlite/internal/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagDate     string
	flagCategory string
	flagComment  string
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense", "exp"},
	Short:   "Record, list and delete expenses",
}

var expensesAddCmd = &cobra.Command{
	Use:   "add AMOUNT",
	Short: "Record an expense (amounts accept a decimal comma)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := core.ParseAmountInput(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			in := services.ExpenseInput{
				Amount:  amount,
				Date:    app.Clock.Now(),
				Comment: flagComment,
			}
			if flagDate != "" {
				d, err := time.ParseInLocation("2006-01-02", flagDate, app.Calendar.Location)
				if err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", flagDate)
				}
				in.Date = d
			}
			if flagCategory != "" {
				c, err := resolveCategory(ctx, app, flagCategory)
				if err != nil {
					return err
				}
				in.CategoryID = &c.ID
			}

			e, err := app.Ledger.AddExpense(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s (%s)\n",
				app.Formatter.Format(e.Amount), e.Date.In(app.Calendar.Location).Format("2006-01-02"), e.ID)
			return nil
		})
	},
}

var expensesListCmd = &cobra.Command{
	Use:   "list [YYYY-MM]",
	Short: "List the expenses of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			month, err := monthArg(app, args)
			if err != nil {
				return err
			}
			expenses, err := app.Stats.MonthExpenses(ctx, month)
			if err != nil {
				return err
			}
			cats, err := app.Ledger.Categories(ctx)
			if err != nil {
				return err
			}
			if len(expenses) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No expenses in %s.\n", month.Label())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderExpenses(expenses, cats, app.Formatter, app.Calendar.Location))
			return nil
		})
	},
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid expense id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := app.Ledger.DeleteExpense(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		})
	},
}

func init() {
	expensesAddCmd.Flags().StringVar(&flagDate, "date", "", "Expense date as YYYY-MM-DD (default today)")
	expensesAddCmd.Flags().StringVar(&flagCategory, "category", "", "Category name or id")
	expensesAddCmd.Flags().StringVar(&flagComment, "comment", "", "Free-text comment")

	expensesCmd.AddCommand(expensesAddCmd, expensesListCmd, expensesDeleteCmd)
	rootCmd.AddCommand(expensesCmd)
}
