package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
)

// ErrIndexMismatch reports that a stored index disagrees with the entries.
var ErrIndexMismatch = errors.New("aggregate index mismatch")

func (l *Ledger) apply(e core.Expense) {
	l.spent[e.Category] = l.spent[e.Category].Add(e.Amount)
	m := e.Date.Month()
	l.monthly[m] = l.monthly[m].Add(e.Amount)
}

func (l *Ledger) retract(e core.Expense) {
	l.spent[e.Category] = l.spent[e.Category].Sub(e.Amount)
	m := e.Date.Month()
	l.monthly[m] = l.monthly[m].Sub(e.Amount)
}

// Recompute sums the current expenses into fresh spent and monthly maps.
// Reports never use it; it exists to check the incremental indices.
func (l *Ledger) Recompute() (spent, monthly map[string]decimal.Decimal) {
	spent = make(map[string]decimal.Decimal)
	monthly = make(map[string]decimal.Decimal)
	for _, e := range l.expenses {
		spent[e.Category] = spent[e.Category].Add(e.Amount)
		m := e.Date.Month()
		monthly[m] = monthly[m].Add(e.Amount)
	}
	return spent, monthly
}

// Verify compares the incremental indices against Recompute. Buckets that
// exist only in the index must be zero; every recomputed bucket must exist.
// Each budgeted category must also have a spent bucket.
func (l *Ledger) Verify() error {
	spent, monthly := l.Recompute()
	if err := compareIndex("spent", l.spent, spent); err != nil {
		return err
	}
	if err := compareIndex("monthly", l.monthly, monthly); err != nil {
		return err
	}
	for _, c := range slices.Sorted(maps.Keys(l.limits)) {
		if _, ok := l.spent[c]; !ok {
			return fmt.Errorf("%w: budgeted category %q has no spent bucket", ErrIndexMismatch, c)
		}
	}
	return nil
}

func compareIndex(name string, index, want map[string]decimal.Decimal) error {
	for _, k := range slices.Sorted(maps.Keys(want)) {
		got, ok := index[k]
		if !ok {
			return fmt.Errorf("%w: %s[%q] missing, want %s", ErrIndexMismatch, name, k, want[k])
		}
		if !got.Equal(want[k]) {
			return fmt.Errorf("%w: %s[%q] = %s, want %s", ErrIndexMismatch, name, k, got, want[k])
		}
	}
	for _, k := range slices.Sorted(maps.Keys(index)) {
		if _, ok := want[k]; !ok && !index[k].IsZero() {
			return fmt.Errorf("%w: %s[%q] = %s, want 0", ErrIndexMismatch, name, k, index[k])
		}
	}
	return nil
}
