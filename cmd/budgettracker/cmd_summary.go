package main

import (
	"github.com/spf13/cobra"

	"budgettracker/internal/shell"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print totals, budget and monthly tables for a profile",
	Long: `Print the summary, the budget-vs-spent table and the monthly budget
table of one profile without starting the menu.

Examples:
  budgettracker summary --user alice`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := openUser(ctx, app); err != nil {
		return err
	}
	l, err := app.Service.Ledger()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shell.Header(out, "Summary ["+app.Service.Active()+"]")
	shell.WriteSummary(out, l.Summary())
	shell.Header(out, "Budget")
	shell.WriteBudget(out, l.TrackBudget())
	shell.Header(out, "Monthly budget")
	shell.WriteMonthly(out, l.TrackMonthlyBudget())
	return nil
}
