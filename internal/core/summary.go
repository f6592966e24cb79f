package core

import "github.com/shopspring/decimal"

// BudgetStatus is one row of the budget-vs-spent table.
type BudgetStatus struct {
	Category  string
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// OverBudget reports whether spending exceeded the limit.
func (b BudgetStatus) OverBudget() bool {
	return b.Remaining.IsNegative()
}

// MonthStatus is one row of the monthly table.
type MonthStatus struct {
	Month     string // YYYY-MM
	Budget    decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// Summary holds ledger-wide totals.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Remaining     decimal.Decimal
}
