package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budgettracker/internal/ledger"
	"budgettracker/internal/services"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify stored ledgers",
	Long: `Load every stored profile (or only --user) and check that the record
parses and that its stored indices agree with its entries.

Exits non-zero when any profile fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	users := []string{app.Config.DefaultUser}
	if app.Config.DefaultUser == "" {
		if users, err = app.Service.Profiles(ctx); err != nil {
			return err
		}
	}

	if failed := checkProfiles(ctx, app.Service, users, cmd.OutOrStdout()); failed > 0 {
		return fmt.Errorf("%d of %d profiles failed", failed, len(users))
	}
	return nil
}

// checkProfiles reports one line per user and returns how many failed.
// A user with no stored record fails instead of being opened empty.
func checkProfiles(ctx context.Context, svc *services.LedgerService, users []string, out io.Writer) int {
	failed := 0
	for _, user := range users {
		exists, err := svc.Exists(ctx, user)
		if err == nil && !exists {
			err = errors.New("profile not found")
		}
		if err == nil {
			err = svc.Open(ctx, user)
		}
		var l *ledger.Ledger
		if err == nil {
			l, err = svc.Ledger()
		}
		if err == nil {
			err = l.Verify()
		}
		if err != nil {
			fmt.Fprintf(out, "%-20s FAIL  %v\n", user, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%-20s ok    %d expenses, %d incomes\n", user, l.ExpenseCount(), l.IncomeCount())
	}
	return failed
}
