package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/log"
	"budgettracker/internal/profile"
	"budgettracker/internal/services"
	"budgettracker/internal/storage"
)

func newService(t *testing.T, dir string) *services.LedgerService {
	t.Helper()
	store, err := storage.NewFileStore(dir, log.Discard())
	require.NoError(t, err)
	return services.NewLedgerService(profile.NewManager(store, profile.Options{Logger: log.Discard()}), nil, log.Discard())
}

// run feeds lines to a fresh shell and returns everything it printed.
func run(t *testing.T, svc *services.LedgerService, lines ...string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	ctx := log.WithContext(context.Background(), log.Discard())
	require.NoError(t, New(svc, in, &out).Run(ctx))
	return out.String()
}

func TestShellPromptsForUserAndExitsOnEOF(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc, "alice")

	assert.Contains(t, out, "Enter username: ")
	assert.Contains(t, out, "Budget Tracker [alice]")
	assert.Contains(t, out, "16. Switch profile")
	assert.Contains(t, out, "Exiting...")
	assert.Equal(t, "alice", svc.Active())
}

func TestShellInvalidUsernameReprompts(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc, "../x", "bob", "0")

	assert.Contains(t, out, "Error: invalid username")
	assert.Equal(t, "bob", svc.Active())
}

func TestShellExpenseLifecycle(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	out := run(t, svc,
		"alice",
		"1", "100", "food", "2024-01-01",
		"1", "12,50", "rent", "2024-01-15",
		"2",
		"3", "2", "40", "rent", "2024-02-01",
		"4", "1",
		"2",
		"0",
	)

	assert.Equal(t, 2, strings.Count(out, "Expense added successfully."))
	assert.Contains(t, out, "      12.50  rent")
	assert.Contains(t, out, "Expense updated successfully.")
	assert.Contains(t, out, "Expense deleted successfully.")

	l, err := svc.Ledger()
	require.NoError(t, err)
	require.Equal(t, 1, l.ExpenseCount())
	e, err := l.Expense(0)
	require.NoError(t, err)
	assert.Equal(t, "rent", e.Category)
	assert.Equal(t, "40.00", e.Amount.StringFixed(2))

	// everything was written through
	reloaded := newService(t, dir)
	out = run(t, reloaded, "alice", "2", "0")
	assert.Contains(t, out, "2024-02-01         40.00  rent")
}

func TestShellRejectsBadInput(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc,
		"alice",
		"1", "-5", "food", "2024-01-01",
		"1", "abc",
		"1", "10", "food", "2024/01/01",
		"3",
		"42",
		"0",
	)

	assert.Contains(t, out, "Error: invalid amount")
	assert.Contains(t, out, "Error: invalid date")
	assert.Contains(t, out, "No expenses recorded.")
	assert.Contains(t, out, "Invalid choice. Please try again.")

	l, err := svc.Ledger()
	require.NoError(t, err)
	assert.Zero(t, l.ExpenseCount())
}

func TestShellIndexOutOfRange(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc,
		"alice",
		"5", "1500", "salary", "2024-01-01",
		"8", "2",
		"8", "0",
		"6",
		"0",
	)

	assert.Equal(t, 2, strings.Count(out, "Error: invalid index: enter a number from 1 to 1"))
	assert.Contains(t, out, "1500.00  salary")
}

func TestShellReports(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc,
		"alice",
		"5", "1500", "salary", "2024-01-01",
		"1", "250", "food", "2024-01-05",
		"1", "50", "food", "2024-02-05",
		"9", "food", "200",
		"9", "rent", "-1",
		"10",
		"11",
		"12", "food",
		"12", "travel",
		"13", "salary",
		"14",
		"0",
	)

	assert.Contains(t, out, "Budget for food set to 200.00.")
	assert.Contains(t, out, "Error: invalid budget limit")
	assert.Contains(t, out, "food                        200.00        300.00       -100.00  over budget")
	assert.Contains(t, out, "Total income:         1500.00")
	assert.Contains(t, out, "Total expenses:        300.00")
	assert.Contains(t, out, "Remaining:            1200.00")
	assert.Contains(t, out, `No expenses found for category "travel".`)
	assert.Contains(t, out, "2024-01         200.00        250.00        -50.00")
	assert.Contains(t, out, "2024-02         200.00         50.00        150.00")
}

func TestShellProfiles(t *testing.T) {
	svc := newService(t, t.TempDir())
	out := run(t, svc,
		"alice",
		"1", "10", "food", "2024-01-01",
		"15", "bob",
		"2",
		"16", "alice", "alice",
		"16", "bob", "alice",
		"2",
		"0",
	)

	assert.Contains(t, out, "Profile bob created and active.")
	assert.Contains(t, out, "Budget Tracker [bob]")
	assert.Contains(t, out, "Error: authentication failed")
	assert.Contains(t, out, "Switched to profile alice.")
	assert.Equal(t, "alice", svc.Active())
}

func TestShellOverlongLineIsRecoverable(t *testing.T) {
	svc := newService(t, t.TempDir())
	long := strings.Repeat("x", 70*1024)
	out := run(t, svc,
		"alice",
		"1", "10", long, "2024-01-01",
		long,
		"2",
		"0",
	)

	assert.Equal(t, 2, strings.Count(out, "Error: input too long"))
	// the date line left over from the aborted command is read as a choice
	assert.Contains(t, out, "Invalid choice. Please try again.")
	assert.Contains(t, out, "No expenses recorded.")
	assert.Contains(t, out, "Exiting...")
	assert.NotContains(t, out, long[:MaxLineLength+1])

	l, err := svc.Ledger()
	require.NoError(t, err)
	assert.Zero(t, l.ExpenseCount())
}

func TestShellLineAtLimitIsAccepted(t *testing.T) {
	svc := newService(t, t.TempDir())
	category := strings.Repeat("c", MaxLineLength)
	out := run(t, svc, "alice", "1", "10", category, "2024-01-01", "0")

	assert.Contains(t, out, "Expense added successfully.")
	l, err := svc.Ledger()
	require.NoError(t, err)
	e, err := l.Expense(0)
	require.NoError(t, err)
	assert.Equal(t, category, e.Category)
}

func TestShellCorruptProfileIsShownReadOnly(t *testing.T) {
	dir := t.TempDir()
	record := []byte("2\n10,food,2024-01-01\nnot,a,record,at,all\n")
	path := filepath.Join(dir, "broken"+storage.FileExt)
	require.NoError(t, os.WriteFile(path, record, 0o644))

	svc := newService(t, dir)
	out := run(t, svc, "broken", "2", "1", "5", "fuel", "2024-01-02", "0")

	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "Budget Tracker [broken] (read-only)")
	assert.Contains(t, out, "food")
	assert.Contains(t, out, "read-only until its record is repaired")
	assert.NotContains(t, out, "Expense added successfully.")
	assert.True(t, svc.ReadOnly())

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}
