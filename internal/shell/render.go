package shell

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fatih/color"

	"budgettracker/internal/core"
)

var (
	heading = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed)
	notice  = color.New(color.FgYellow)
)

// Header prints a section title underlined to its width.
func Header(w io.Writer, text string) {
	heading.Fprintf(w, "\n%s\n%s\n", text, strings.Repeat("=", len(text)))
}

// WriteExpenses lists expenses numbered from 1 and returns how many were
// written.
func WriteExpenses(w io.Writer, seq iter.Seq2[int, core.Expense]) int {
	n := 0
	for i, e := range seq {
		if n == 0 {
			fmt.Fprintf(w, "%4s  %-10s  %12s  %s\n", "#", "Date", "Amount", "Category")
		}
		fmt.Fprintf(w, "%4d  %-10s  %12s  %s\n", i+1, e.Date, core.FormatAmount(e.Amount), e.Category)
		n++
	}
	return n
}

// WriteIncomes lists incomes numbered from 1 and returns how many were
// written.
func WriteIncomes(w io.Writer, seq iter.Seq2[int, core.Income]) int {
	n := 0
	for i, in := range seq {
		if n == 0 {
			fmt.Fprintf(w, "%4s  %-10s  %12s  %s\n", "#", "Date", "Amount", "Source")
		}
		fmt.Fprintf(w, "%4d  %-10s  %12s  %s\n", i+1, in.Date, core.FormatAmount(in.Amount), in.Source)
		n++
	}
	return n
}

// WriteBudget prints the budget-vs-spent table. Over-budget rows are
// highlighted.
func WriteBudget(w io.Writer, rows []core.BudgetStatus) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No budgets set.")
		return
	}
	fmt.Fprintf(w, "%-20s  %12s  %12s  %12s\n", "Category", "Budget", "Spent", "Remaining")
	for _, r := range rows {
		line := fmt.Sprintf("%-20s  %12s  %12s  %12s", r.Category,
			core.FormatAmount(r.Limit), core.FormatAmount(r.Spent), core.FormatAmount(r.Remaining))
		if r.OverBudget() {
			failure.Fprintln(w, line+"  over budget")
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func WriteMonthly(w io.Writer, rows []core.MonthStatus) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No monthly expenses recorded.")
		return
	}
	fmt.Fprintf(w, "%-8s  %12s  %12s  %12s\n", "Month", "Budget", "Spent", "Remaining")
	for _, r := range rows {
		line := fmt.Sprintf("%-8s  %12s  %12s  %12s", r.Month,
			core.FormatAmount(r.Budget), core.FormatAmount(r.Spent), core.FormatAmount(r.Remaining))
		if r.Remaining.IsNegative() {
			failure.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func WriteSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "%-16s %12s\n", "Total income:", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(w, "%-16s %12s\n", "Total expenses:", core.FormatAmount(s.TotalExpenses))
	remaining := fmt.Sprintf("%-16s %12s", "Remaining:", core.FormatAmount(s.Remaining))
	if s.Remaining.IsNegative() {
		notice.Fprintln(w, remaining)
		return
	}
	fmt.Fprintln(w, remaining)
}
