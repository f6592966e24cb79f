package ledger

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/core"
)

func TestExpensesSequenceIsRestartable(t *testing.T) {
	l := New()
	for _, e := range []core.Expense{
		expense("1", "a", "2024-01-01"),
		expense("2", "b", "2024-01-02"),
		expense("3", "a", "2024-01-03"),
	} {
		_, err := l.AddExpense(e)
		require.NoError(t, err)
	}

	assert.Len(t, maps.Collect(l.Expenses()), 3)

	var order []string
	for i, e := range l.Expenses() {
		order = append(order, e.Amount.String())
		assert.Equal(t, e, l.expenses[i])
	}
	assert.Equal(t, []string{"1", "2", "3"}, order)

	// early break must stop iteration
	n := 0
	for range l.Expenses() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFilterByCategoryAndSource(t *testing.T) {
	l := New()
	_, _ = l.AddExpense(expense("1", "food", "2024-01-01"))
	_, _ = l.AddExpense(expense("2", "Food", "2024-01-02"))
	_, _ = l.AddExpense(expense("3", "food", "2024-01-03"))
	_, _ = l.AddIncome(income("10", "salary", "2024-01-01"))
	_, _ = l.AddIncome(income("20", "bonus", "2024-01-01"))

	var positions []int
	for i := range l.ExpensesByCategory("food") {
		positions = append(positions, i)
	}
	assert.Equal(t, []int{0, 2}, positions, "exact, case-sensitive, insertion order")

	n := 0
	for range l.ExpensesByCategory("nonexistent") {
		n++
	}
	assert.Zero(t, n)

	var sources []string
	for _, in := range l.IncomesBySource("bonus") {
		sources = append(sources, in.Source)
	}
	assert.Equal(t, []string{"bonus"}, sources)
}

func TestSummaryReport(t *testing.T) {
	l := New()
	_, _ = l.AddIncome(income("1000", "salary", "2024-01-01"))
	_, _ = l.AddIncome(income("500", "freelance", "2024-01-15"))
	_, _ = l.AddExpense(expense("200", "food", "2024-01-10"))
	_, _ = l.AddExpense(expense("100", "rent", "2024-01-11"))

	s := l.Summary()
	assert.Equal(t, "1500.00", core.FormatAmount(s.TotalIncome))
	assert.Equal(t, "300.00", core.FormatAmount(s.TotalExpenses))
	assert.Equal(t, "1200.00", core.FormatAmount(s.Remaining))
}

func TestSummaryEmpty(t *testing.T) {
	s := New().Summary()
	assert.True(t, s.TotalIncome.IsZero())
	assert.True(t, s.Remaining.IsZero())
}

func TestTrackBudgetSortedByCategory(t *testing.T) {
	l := New()
	require.NoError(t, l.SetBudget("rent", dec("800")))
	require.NoError(t, l.SetBudget("food", dec("300")))
	_, _ = l.AddExpense(expense("350", "food", "2024-01-10"))
	_, _ = l.AddExpense(expense("20", "fun", "2024-01-10")) // unbudgeted

	rows := l.TrackBudget()
	require.Len(t, rows, 2)
	assert.Equal(t, "food", rows[0].Category)
	assert.Equal(t, "-50.00", core.FormatAmount(rows[0].Remaining))
	assert.True(t, rows[0].OverBudget())
	assert.Equal(t, "rent", rows[1].Category)
	assert.True(t, rows[1].Spent.IsZero())
	assert.Equal(t, "800.00", core.FormatAmount(rows[1].Remaining))
}

func TestTrackMonthlyBudgetMatchesRecompute(t *testing.T) {
	l := New()
	require.NoError(t, l.SetBudget("food", dec("300")))
	require.NoError(t, l.SetBudget("rent", dec("700")))
	_, _ = l.AddExpense(expense("200", "food", "2024-02-10"))
	_, _ = l.AddExpense(expense("700", "rent", "2024-01-01"))
	_, _ = l.AddExpense(expense("50", "food", "2024-01-20"))
	require.NoError(t, l.UpdateExpense(2, expense("60", "food", "2024-03-01")))

	rows := l.TrackMonthlyBudget()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, []string{rows[0].Month, rows[1].Month, rows[2].Month})

	_, monthly := l.Recompute()
	for _, r := range rows {
		assert.True(t, r.Budget.Equal(dec("1000")))
		assert.True(t, r.Spent.Equal(monthly[r.Month]), "month %s: index %s, recomputed %s", r.Month, r.Spent, monthly[r.Month])
		assert.True(t, r.Remaining.Equal(r.Budget.Sub(r.Spent)))
	}
	assert.Equal(t, "700.00", core.FormatAmount(rows[0].Spent))
}
