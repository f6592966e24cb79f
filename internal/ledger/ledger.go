// Package ledger holds one user's entries, budget limits and the derived
// spent/monthly indices.
//
// Every mutation validates first and then updates the entry store and the
// indices together, so a reader never sees one without the other:
//
//	spent[c]   == Σ amount of expenses with category c
//	monthly[m] == Σ amount of expenses whose date falls in month m
//
// Buckets are never removed once created. A category or month whose entries
// are all deleted stays present with a zero value.
package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
)

// Ledger is not safe for concurrent use.
type Ledger struct {
	expenses []core.Expense
	incomes  []core.Income
	limits   map[string]decimal.Decimal
	spent    map[string]decimal.Decimal
	monthly  map[string]decimal.Decimal
}

// Snapshot is the complete serialisable state of a Ledger.
type Snapshot struct {
	Expenses []core.Expense
	Incomes  []core.Income
	Limits   map[string]decimal.Decimal
	Spent    map[string]decimal.Decimal
	Monthly  map[string]decimal.Decimal
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		limits:  make(map[string]decimal.Decimal),
		spent:   make(map[string]decimal.Decimal),
		monthly: make(map[string]decimal.Decimal),
	}
}

// FromSnapshot restores a ledger exactly as captured, indices included.
// Indices are not recomputed; use Verify to check them.
func FromSnapshot(s Snapshot) *Ledger {
	l := New()
	l.expenses = slices.Clone(s.Expenses)
	l.incomes = slices.Clone(s.Incomes)
	maps.Copy(l.limits, s.Limits)
	maps.Copy(l.spent, s.Spent)
	maps.Copy(l.monthly, s.Monthly)
	return l
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		Expenses: slices.Clone(l.expenses),
		Incomes:  slices.Clone(l.incomes),
		Limits:   maps.Clone(l.limits),
		Spent:    maps.Clone(l.spent),
		Monthly:  maps.Clone(l.monthly),
	}
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return FromSnapshot(l.Snapshot())
}

// AddExpense appends an expense and returns its position.
func (l *Ledger) AddExpense(e core.Expense) (int, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	l.expenses = append(l.expenses, e)
	l.apply(e)
	return len(l.expenses) - 1, nil
}

// UpdateExpense replaces the expense at index. The old amount leaves its
// category/month buckets and the new amount enters the new ones, even when
// neither changed.
func (l *Ledger) UpdateExpense(index int, e core.Expense) error {
	if err := l.checkExpenseIndex(index); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	l.retract(l.expenses[index])
	l.apply(e)
	l.expenses[index] = e
	return nil
}

// DeleteExpense removes the expense at index and returns it.
func (l *Ledger) DeleteExpense(index int) (core.Expense, error) {
	if err := l.checkExpenseIndex(index); err != nil {
		return core.Expense{}, err
	}
	old := l.expenses[index]
	l.retract(old)
	l.expenses = slices.Delete(l.expenses, index, index+1)
	return old, nil
}

// AddIncome appends an income and returns its position.
func (l *Ledger) AddIncome(in core.Income) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	l.incomes = append(l.incomes, in)
	return len(l.incomes) - 1, nil
}

// UpdateIncome replaces the income at index.
func (l *Ledger) UpdateIncome(index int, in core.Income) error {
	if err := l.checkIncomeIndex(index); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	l.incomes[index] = in
	return nil
}

// DeleteIncome removes the income at index and returns it.
func (l *Ledger) DeleteIncome(index int) (core.Income, error) {
	if err := l.checkIncomeIndex(index); err != nil {
		return core.Income{}, err
	}
	old := l.incomes[index]
	l.incomes = slices.Delete(l.incomes, index, index+1)
	return old, nil
}

// SetBudget creates or overwrites the limit for category. The category gets
// a spent bucket if it has none yet.
func (l *Ledger) SetBudget(category string, limit decimal.Decimal) error {
	if err := core.ValidateLimit(limit); err != nil {
		return err
	}
	l.limits[category] = limit
	if _, ok := l.spent[category]; !ok {
		l.spent[category] = decimal.Zero
	}
	return nil
}

func (l *Ledger) checkExpenseIndex(index int) error {
	if index < 0 || index >= len(l.expenses) {
		return fmt.Errorf("%w: expense %d out of range [0,%d)", core.ErrInvalidIndex, index, len(l.expenses))
	}
	return nil
}

func (l *Ledger) checkIncomeIndex(index int) error {
	if index < 0 || index >= len(l.incomes) {
		return fmt.Errorf("%w: income %d out of range [0,%d)", core.ErrInvalidIndex, index, len(l.incomes))
	}
	return nil
}

// Equal reports whether two snapshots hold the same entries in the same order
// and the same map contents, comparing amounts by value.
func (s Snapshot) Equal(o Snapshot) bool {
	if !slices.EqualFunc(s.Expenses, o.Expenses, func(a, b core.Expense) bool {
		return a.Amount.Equal(b.Amount) && a.Category == b.Category && a.Date == b.Date
	}) {
		return false
	}
	if !slices.EqualFunc(s.Incomes, o.Incomes, func(a, b core.Income) bool {
		return a.Amount.Equal(b.Amount) && a.Source == b.Source && a.Date == b.Date
	}) {
		return false
	}
	eq := func(a, b decimal.Decimal) bool { return a.Equal(b) }
	return maps.EqualFunc(s.Limits, o.Limits, eq) &&
		maps.EqualFunc(s.Spent, o.Spent, eq) &&
		maps.EqualFunc(s.Monthly, o.Monthly, eq)
}
