// Package shell is the interactive menu over the active profile's ledger.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/ledger"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
)

type command struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

// Shell reads one menu choice per line from its input. Entry numbers are
// shown and read 1-based.
type Shell struct {
	svc      *services.LedgerService
	in       *bufio.Reader
	out      io.Writer
	logger   *log.Logger
	commands []command
}

// MaxLineLength bounds one line of input, newline excluded.
const MaxLineLength = 4096

// ErrLineTooLong is returned for an input line over MaxLineLength. The rest
// of the line is discarded and the shell keeps reading.
var ErrLineTooLong = fmt.Errorf("input too long: at most %d characters per line", MaxLineLength)

// New builds a shell reading from in and writing to out. It logs through the
// logger carried by the context passed to Run.
func New(svc *services.LedgerService, in io.Reader, out io.Writer) *Shell {
	s := &Shell{
		svc: svc,
		in:  bufio.NewReader(in),
		out: out,
	}
	s.commands = []command{
		{"1", "Add expense", s.addExpense},
		{"2", "List expenses", s.listExpenses},
		{"3", "Update expense", s.updateExpense},
		{"4", "Delete expense", s.deleteExpense},
		{"5", "Add income", s.addIncome},
		{"6", "List incomes", s.listIncomes},
		{"7", "Update income", s.updateIncome},
		{"8", "Delete income", s.deleteIncome},
		{"9", "Set budget", s.setBudget},
		{"10", "Track budget", s.trackBudget},
		{"11", "Summary", s.summary},
		{"12", "View expenses by category", s.expensesByCategory},
		{"13", "View incomes by source", s.incomesBySource},
		{"14", "Track monthly budget", s.trackMonthly},
		{"15", "Add profile", s.addProfile},
		{"16", "Switch profile", s.switchProfile},
	}
	return s
}

// Run opens a profile if none is active, then serves the menu until the
// user exits, input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	s.logger = log.FromContext(ctx).WithComponent(log.ComponentShell)

	for s.svc.Active() == "" {
		name, err := s.prompt("Enter username: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrLineTooLong) {
			s.fail(err)
			continue
		}
		if err != nil {
			return err
		}
		if err := s.svc.Open(ctx, name); err != nil {
			s.fail(err)
		}
	}

	for ctx.Err() == nil {
		s.menu()
		choice, err := s.prompt("Enter your choice: ")
		if errors.Is(err, io.EOF) || choice == "0" {
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}
		if errors.Is(err, ErrLineTooLong) {
			s.fail(err)
			continue
		}
		if err != nil {
			return err
		}

		cmd, ok := s.lookup(choice)
		if !ok {
			failure.Fprintln(s.out, "Invalid choice. Please try again.")
			continue
		}
		if err := cmd.run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out, "Exiting...")
				return nil
			}
			s.fail(err)
		}
	}
	return nil
}

func (s *Shell) menu() {
	title := fmt.Sprintf("Budget Tracker [%s]", s.svc.Active())
	if s.svc.ReadOnly() {
		title += " (read-only)"
	}
	Header(s.out, title)
	for _, c := range s.commands {
		fmt.Fprintf(s.out, "%2s. %s\n", c.key, c.label)
	}
	fmt.Fprintf(s.out, "%2s. %s\n", "0", "Exit")
}

func (s *Shell) lookup(key string) (command, bool) {
	for _, c := range s.commands {
		if c.key == key {
			return c, true
		}
	}
	return command{}, false
}

func (s *Shell) fail(err error) {
	s.logger.Debug("Command failed", log.FieldError, err)
	failure.Fprintf(s.out, "Error: %v\n", err)
}

// prompt writes label and returns the next input line, trimmed. It returns
// io.EOF once input is exhausted and ErrLineTooLong for an oversized line.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.readLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(s.out)
	}
	return line, err
}

// readLine reads up to the next newline. An overlong line is consumed to its
// end so the following line is read normally.
func (s *Shell) readLine() (string, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := s.in.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimRight(chunk, "\r\n")) > MaxLineLength {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil, errors.Is(err, io.EOF) && (tooLong || len(line) > 0):
			if tooLong {
				return "", ErrLineTooLong
			}
			return strings.TrimSpace(string(line)), nil
		default:
			return "", err
		}
	}
}

func (s *Shell) promptAmount(label string) (decimal.Decimal, error) {
	text, err := s.prompt(label)
	if err != nil {
		return decimal.Zero, err
	}
	return core.ParseAmount(text)
}

// promptIndex reads a 1-based entry number and returns its 0-based position.
func (s *Shell) promptIndex(kind string, count int) (int, error) {
	text, err := s.prompt(fmt.Sprintf("Enter %s number: ", kind))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("%w: enter a number from 1 to %d", core.ErrInvalidIndex, count)
	}
	return n - 1, nil
}

func (s *Shell) readExpense() (core.Expense, error) {
	amount, err := s.promptAmount("Enter amount: ")
	if err != nil {
		return core.Expense{}, err
	}
	category, err := s.prompt("Enter category: ")
	if err != nil {
		return core.Expense{}, err
	}
	date, err := s.prompt("Enter date (YYYY-MM-DD): ")
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{Amount: amount, Category: category, Date: core.Date(date)}, nil
}

func (s *Shell) readIncome() (core.Income, error) {
	amount, err := s.promptAmount("Enter amount: ")
	if err != nil {
		return core.Income{}, err
	}
	source, err := s.prompt("Enter source: ")
	if err != nil {
		return core.Income{}, err
	}
	date, err := s.prompt("Enter date (YYYY-MM-DD): ")
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{Amount: amount, Source: source, Date: core.Date(date)}, nil
}

func (s *Shell) ledger() (*ledger.Ledger, error) {
	return s.svc.Ledger()
}

func (s *Shell) addExpense(ctx context.Context) error {
	e, err := s.readExpense()
	if err != nil {
		return err
	}
	if _, err := s.svc.AddExpense(ctx, e); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Expense added successfully.")
	return nil
}

func (s *Shell) listExpenses(context.Context) error {
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Expenses")
	if WriteExpenses(s.out, l.Expenses()) == 0 {
		fmt.Fprintln(s.out, "No expenses recorded.")
	}
	return nil
}

// pickExpense lists expenses and reads a choice. ok is false when there is
// nothing to pick from.
func (s *Shell) pickExpense(ctx context.Context) (index int, ok bool, err error) {
	if err := s.listExpenses(ctx); err != nil {
		return 0, false, err
	}
	l, _ := s.ledger()
	if l.ExpenseCount() == 0 {
		return 0, false, nil
	}
	index, err = s.promptIndex("expense", l.ExpenseCount())
	return index, err == nil, err
}

func (s *Shell) updateExpense(ctx context.Context) error {
	index, ok, err := s.pickExpense(ctx)
	if !ok {
		return err
	}
	e, err := s.readExpense()
	if err != nil {
		return err
	}
	if err := s.svc.UpdateExpense(ctx, index, e); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Expense updated successfully.")
	return nil
}

func (s *Shell) deleteExpense(ctx context.Context) error {
	index, ok, err := s.pickExpense(ctx)
	if !ok {
		return err
	}
	if _, err := s.svc.DeleteExpense(ctx, index); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Expense deleted successfully.")
	return nil
}

func (s *Shell) addIncome(ctx context.Context) error {
	in, err := s.readIncome()
	if err != nil {
		return err
	}
	if _, err := s.svc.AddIncome(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Income added successfully.")
	return nil
}

func (s *Shell) listIncomes(context.Context) error {
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Incomes")
	if WriteIncomes(s.out, l.Incomes()) == 0 {
		fmt.Fprintln(s.out, "No incomes recorded.")
	}
	return nil
}

func (s *Shell) pickIncome(ctx context.Context) (index int, ok bool, err error) {
	if err := s.listIncomes(ctx); err != nil {
		return 0, false, err
	}
	l, _ := s.ledger()
	if l.IncomeCount() == 0 {
		return 0, false, nil
	}
	index, err = s.promptIndex("income", l.IncomeCount())
	return index, err == nil, err
}

func (s *Shell) updateIncome(ctx context.Context) error {
	index, ok, err := s.pickIncome(ctx)
	if !ok {
		return err
	}
	in, err := s.readIncome()
	if err != nil {
		return err
	}
	if err := s.svc.UpdateIncome(ctx, index, in); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Income updated successfully.")
	return nil
}

func (s *Shell) deleteIncome(ctx context.Context) error {
	index, ok, err := s.pickIncome(ctx)
	if !ok {
		return err
	}
	if _, err := s.svc.DeleteIncome(ctx, index); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Income deleted successfully.")
	return nil
}

func (s *Shell) setBudget(ctx context.Context) error {
	category, err := s.prompt("Enter category: ")
	if err != nil {
		return err
	}
	limit, err := s.promptAmount("Enter budget limit: ")
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return core.ErrInvalidLimit
		}
		return err
	}
	if err := s.svc.SetBudget(ctx, category, limit); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Budget for %s set to %s.\n", category, core.FormatAmount(limit))
	return nil
}

func (s *Shell) trackBudget(context.Context) error {
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Budget")
	WriteBudget(s.out, l.TrackBudget())
	return nil
}

func (s *Shell) summary(context.Context) error {
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Summary")
	WriteSummary(s.out, l.Summary())
	return nil
}

func (s *Shell) expensesByCategory(context.Context) error {
	category, err := s.prompt("Enter category: ")
	if err != nil {
		return err
	}
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Expenses in "+category)
	if WriteExpenses(s.out, l.ExpensesByCategory(category)) == 0 {
		fmt.Fprintf(s.out, "No expenses found for category %q.\n", category)
	}
	return nil
}

func (s *Shell) incomesBySource(context.Context) error {
	source, err := s.prompt("Enter source: ")
	if err != nil {
		return err
	}
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Incomes from "+source)
	if WriteIncomes(s.out, l.IncomesBySource(source)) == 0 {
		fmt.Fprintf(s.out, "No incomes found for source %q.\n", source)
	}
	return nil
}

func (s *Shell) trackMonthly(context.Context) error {
	l, err := s.ledger()
	if err != nil {
		return err
	}
	Header(s.out, "Monthly budget")
	WriteMonthly(s.out, l.TrackMonthlyBudget())
	return nil
}

func (s *Shell) addProfile(ctx context.Context) error {
	name, err := s.prompt("Enter new username: ")
	if err != nil {
		return err
	}
	if err := s.svc.AddProfile(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Profile %s created and active.\n", name)
	return nil
}

func (s *Shell) switchProfile(ctx context.Context) error {
	current, err := s.prompt("Enter current username: ")
	if err != nil {
		return err
	}
	target, err := s.prompt("Enter username to switch to: ")
	if err != nil {
		return err
	}
	if err := s.svc.SwitchProfile(ctx, current, target); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Switched to profile %s.\n", target)
	return nil
}
