// Package services runs ledger mutations for the active profile: validate,
// apply to a copy, persist, then announce the change.
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"budgettracker/internal/amqp"
	"budgettracker/internal/core"
	"budgettracker/internal/ledger"
	"budgettracker/internal/log"
	"budgettracker/internal/profile"
)

// Publisher receives a notification after every persisted mutation.
type Publisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService orchestrates ledger operations across storage and AMQP.
// A nil publisher disables notifications.
type LedgerService struct {
	profiles   *profile.Manager
	publisher  Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
}

func NewLedgerService(profiles *profile.Manager, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		profiles:   profiles,
		publisher:  publisher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// Ledger returns the active profile's ledger for reading.
func (s *LedgerService) Ledger() (*ledger.Ledger, error) {
	_, l := s.profiles.Active()
	if l == nil {
		return nil, core.ErrNoActiveProfile
	}
	return l, nil
}

// Active returns the active username, or "" when none is open.
func (s *LedgerService) Active() string {
	name, _ := s.profiles.Active()
	return name
}

func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (int, error) {
	var index int
	err := s.mutate(ctx, log.OpAddExpense, amqp.EntryExpense, func(l *ledger.Ledger) (int, log.LogFields, error) {
		var err error
		index, err = l.AddExpense(e)
		return index, expenseFields(index, e), err
	})
	return index, err
}

func (s *LedgerService) UpdateExpense(ctx context.Context, index int, e core.Expense) error {
	return s.mutate(ctx, log.OpUpdateExpense, amqp.EntryExpense, func(l *ledger.Ledger) (int, log.LogFields, error) {
		return index, expenseFields(index, e), l.UpdateExpense(index, e)
	})
}

func (s *LedgerService) DeleteExpense(ctx context.Context, index int) (core.Expense, error) {
	var removed core.Expense
	err := s.mutate(ctx, log.OpDeleteExpense, amqp.EntryExpense, func(l *ledger.Ledger) (int, log.LogFields, error) {
		var err error
		removed, err = l.DeleteExpense(index)
		return index, expenseFields(index, removed), err
	})
	return removed, err
}

func (s *LedgerService) AddIncome(ctx context.Context, in core.Income) (int, error) {
	var index int
	err := s.mutate(ctx, log.OpAddIncome, amqp.EntryIncome, func(l *ledger.Ledger) (int, log.LogFields, error) {
		var err error
		index, err = l.AddIncome(in)
		return index, incomeFields(index, in), err
	})
	return index, err
}

func (s *LedgerService) UpdateIncome(ctx context.Context, index int, in core.Income) error {
	return s.mutate(ctx, log.OpUpdateIncome, amqp.EntryIncome, func(l *ledger.Ledger) (int, log.LogFields, error) {
		return index, incomeFields(index, in), l.UpdateIncome(index, in)
	})
}

func (s *LedgerService) DeleteIncome(ctx context.Context, index int) (core.Income, error) {
	var removed core.Income
	err := s.mutate(ctx, log.OpDeleteIncome, amqp.EntryIncome, func(l *ledger.Ledger) (int, log.LogFields, error) {
		var err error
		removed, err = l.DeleteIncome(index)
		return index, incomeFields(index, removed), err
	})
	return removed, err
}

func (s *LedgerService) SetBudget(ctx context.Context, category string, limit decimal.Decimal) error {
	return s.mutate(ctx, log.OpSetBudget, amqp.EntryBudget, func(l *ledger.Ledger) (int, log.LogFields, error) {
		fields := log.NewFields()
		fields[log.FieldCategory] = category
		fields[log.FieldAmount] = core.FormatAmount(limit)
		return -1, fields, l.SetBudget(category, limit)
	})
}

// ReadOnly reports whether the active profile was opened from a corrupt
// record. Mutations fail until the record is repaired.
func (s *LedgerService) ReadOnly() bool {
	return s.profiles.ReadOnly()
}

// Exists reports whether username has a stored record.
func (s *LedgerService) Exists(ctx context.Context, username string) (bool, error) {
	return s.profiles.Exists(ctx, username)
}

// Open activates username without any confirmation. Used at startup.
func (s *LedgerService) Open(ctx context.Context, username string) error {
	return s.profiles.Open(ctx, username)
}

func (s *LedgerService) AddProfile(ctx context.Context, username string) error {
	if err := s.profiles.Add(ctx, username); err != nil {
		s.structured.LogRejected(ctx, username, log.OpAddProfile, err)
		return err
	}
	s.logger.InfoContext(ctx, "Profile created", log.FieldUsername, username)
	return nil
}

func (s *LedgerService) SwitchProfile(ctx context.Context, current, target string) error {
	if err := s.profiles.Switch(ctx, current, target); err != nil {
		s.structured.LogRejected(ctx, current, log.OpSwitchProfile, err)
		return err
	}
	s.logger.InfoContext(ctx, "Switched profile", log.FieldUsername, target)
	return nil
}

func (s *LedgerService) Profiles(ctx context.Context) ([]string, error) {
	return s.profiles.Profiles(ctx)
}

// mutate applies fn to a copy of the active ledger and persists the copy.
// The active ledger only changes once the save has succeeded.
func (s *LedgerService) mutate(ctx context.Context, op, kind string, fn func(*ledger.Ledger) (int, log.LogFields, error)) error {
	username, current := s.profiles.Active()
	if current == nil {
		return core.ErrNoActiveProfile
	}

	next := current.Clone()
	index, fields, err := fn(next)
	if err != nil {
		s.structured.LogRejected(ctx, username, op, err)
		return err
	}

	if err := s.profiles.Save(ctx, next); err != nil {
		s.structured.LogError(ctx, "Failed to persist ledger change", err, log.ComponentLedger, op,
			log.NewFields().WithUsername(username).WithErrorType(log.ErrorTypePersistence))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.structured.LogLedgerChange(ctx, username, op, fields)
	s.publish(ctx, username, op, kind, index)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, username, op, kind string, index int) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(username, op, kind, index)
	if err := s.publisher.PublishLedgerChange(ctx, msg); err != nil {
		// the change is already stored
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldUsername, username,
			log.FieldOperation, op,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

func expenseFields(index int, e core.Expense) log.LogFields {
	return log.NewFields().WithEntry(amqp.EntryExpense, index, core.FormatAmount(e.Amount), e.Category, e.Date.String())
}

func incomeFields(index int, in core.Income) log.LogFields {
	return log.NewFields().WithEntry(amqp.EntryIncome, index, core.FormatAmount(in.Amount), in.Source, in.Date.String())
}
