package ledger

import (
	"iter"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
)

// Expenses yields every expense with its position, in insertion order.
// The sequence reads the ledger lazily and can be ranged over repeatedly.
func (l *Ledger) Expenses() iter.Seq2[int, core.Expense] {
	return func(yield func(int, core.Expense) bool) {
		for i, e := range l.expenses {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Incomes yields every income with its position, in insertion order.
func (l *Ledger) Incomes() iter.Seq2[int, core.Income] {
	return func(yield func(int, core.Income) bool) {
		for i, in := range l.incomes {
			if !yield(i, in) {
				return
			}
		}
	}
}

// ExpensesByCategory yields the expenses whose category equals category
// exactly (case-sensitive). No match yields nothing.
func (l *Ledger) ExpensesByCategory(category string) iter.Seq2[int, core.Expense] {
	return func(yield func(int, core.Expense) bool) {
		for i, e := range l.expenses {
			if e.Category != category {
				continue
			}
			if !yield(i, e) {
				return
			}
		}
	}
}

// IncomesBySource yields the incomes whose source equals source exactly.
func (l *Ledger) IncomesBySource(source string) iter.Seq2[int, core.Income] {
	return func(yield func(int, core.Income) bool) {
		for i, in := range l.incomes {
			if in.Source != source {
				continue
			}
			if !yield(i, in) {
				return
			}
		}
	}
}

func (l *Ledger) ExpenseCount() int { return len(l.expenses) }

func (l *Ledger) IncomeCount() int { return len(l.incomes) }

// Expense returns the expense at index.
func (l *Ledger) Expense(index int) (core.Expense, error) {
	if err := l.checkExpenseIndex(index); err != nil {
		return core.Expense{}, err
	}
	return l.expenses[index], nil
}

// Income returns the income at index.
func (l *Ledger) Income(index int) (core.Income, error) {
	if err := l.checkIncomeIndex(index); err != nil {
		return core.Income{}, err
	}
	return l.incomes[index], nil
}

// Spent returns the spent bucket for category and whether it exists.
func (l *Ledger) Spent(category string) (decimal.Decimal, bool) {
	v, ok := l.spent[category]
	return v, ok
}

// MonthTotal returns the monthly bucket for a YYYY-MM key and whether it exists.
func (l *Ledger) MonthTotal(month string) (decimal.Decimal, bool) {
	v, ok := l.monthly[month]
	return v, ok
}

// Budget returns the limit set for category and whether one is set.
func (l *Ledger) Budget(category string) (decimal.Decimal, bool) {
	v, ok := l.limits[category]
	return v, ok
}

// TrackBudget reports limit, spent and remaining for every budgeted
// category, ordered by category name.
func (l *Ledger) TrackBudget() []core.BudgetStatus {
	out := make([]core.BudgetStatus, 0, len(l.limits))
	for _, c := range slices.Sorted(maps.Keys(l.limits)) {
		limit := l.limits[c]
		spent := l.spent[c]
		out = append(out, core.BudgetStatus{
			Category:  c,
			Limit:     limit,
			Spent:     spent,
			Remaining: limit.Sub(spent),
		})
	}
	return out
}

// TrackMonthlyBudget reports every month present in the monthly index,
// ordered by month. The budget of a month is the sum of all category limits.
func (l *Ledger) TrackMonthlyBudget() []core.MonthStatus {
	budget := decimal.Zero
	for _, v := range l.limits {
		budget = budget.Add(v)
	}
	out := make([]core.MonthStatus, 0, len(l.monthly))
	for _, m := range slices.Sorted(maps.Keys(l.monthly)) {
		spent := l.monthly[m]
		out = append(out, core.MonthStatus{
			Month:     m,
			Budget:    budget,
			Spent:     spent,
			Remaining: budget.Sub(spent),
		})
	}
	return out
}

// Summary totals incomes and expenses straight from the entries.
func (l *Ledger) Summary() core.Summary {
	income := decimal.Zero
	for _, in := range l.incomes {
		income = income.Add(in.Amount)
	}
	expenses := decimal.Zero
	for _, e := range l.expenses {
		expenses = expenses.Add(e.Amount)
	}
	return core.Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Remaining:     income.Sub(expenses),
	}
}
