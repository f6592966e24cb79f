package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/amqp"
	"budgettracker/internal/codec"
	"budgettracker/internal/core"
	"budgettracker/internal/ledger"
	"budgettracker/internal/log"
	"budgettracker/internal/profile"
	"budgettracker/internal/storage"
)

type recordingPublisher struct {
	messages []*amqp.LedgerChangedMessage
	err      error
}

func (p *recordingPublisher) PublishLedgerChange(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.messages = append(p.messages, msg)
	return p.err
}

type flakyStore struct {
	storage.Store
	failWrites bool
}

func (f *flakyStore) Write(ctx context.Context, username string, record []byte) error {
	if f.failWrites {
		return errors.Join(core.ErrPersistenceUnavailable, errors.New("read-only file system"))
	}
	return f.Store.Write(ctx, username, record)
}

type fixture struct {
	svc   *LedgerService
	store *flakyStore
	pub   *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := &flakyStore{Store: storage.NewMemoryStore(nil)}
	pub := &recordingPublisher{}
	svc := NewLedgerService(profile.NewManager(store, profile.Options{Logger: log.Discard()}), pub, log.Discard())
	require.NoError(t, svc.Open(context.Background(), "alice"))
	return fixture{svc: svc, store: store, pub: pub}
}

func expense(amount, category, date string) core.Expense {
	return core.Expense{Amount: decimal.RequireFromString(amount), Category: category, Date: core.Date(date)}
}

func income(amount, source, date string) core.Income {
	return core.Income{Amount: decimal.RequireFromString(amount), Source: source, Date: core.Date(date)}
}

// stored decodes what the store currently holds for username.
func stored(t *testing.T, s storage.Store, username string) ledger.Snapshot {
	t.Helper()
	data, err := s.Read(context.Background(), username)
	require.NoError(t, err)
	snap, err := codec.Unmarshal(data)
	require.NoError(t, err)
	return snap
}

func TestAddExpenseWritesThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	index, err := f.svc.AddExpense(ctx, expense("100", "food", "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	rec := stored(t, f.store, "alice")
	require.Len(t, rec.Expenses, 1)
	assert.Equal(t, "food", rec.Expenses[0].Category)
	assert.True(t, rec.Spent["food"].Equal(decimal.NewFromInt(100)))
	assert.True(t, rec.Monthly["2024-01"].Equal(decimal.NewFromInt(100)))

	require.Len(t, f.pub.messages, 1)
	msg := f.pub.messages[0]
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, log.OpAddExpense, msg.Operation)
	assert.Equal(t, amqp.EntryExpense, msg.EntryKind)
	assert.Equal(t, 0, msg.Index)
}

func TestRejectedMutationChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddExpense(ctx, expense("100", "food", "2024-01-01"))
	require.NoError(t, err)
	before, err := f.svc.Ledger()
	require.NoError(t, err)
	snap := before.Snapshot()

	_, err = f.svc.AddExpense(ctx, expense("-5", "food", "2024-01-01"))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	err = f.svc.UpdateExpense(ctx, 0, expense("5", "food", "2024/01/01"))
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	_, err = f.svc.DeleteIncome(ctx, 0)
	assert.ErrorIs(t, err, core.ErrInvalidIndex)
	err = f.svc.SetBudget(ctx, "food", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)

	after, err := f.svc.Ledger()
	require.NoError(t, err)
	assert.True(t, snap.Equal(after.Snapshot()))
	assert.Len(t, f.pub.messages, 1)
}

func TestSaveFailureKeepsActiveLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddIncome(ctx, income("1500", "salary", "2024-01-01"))
	require.NoError(t, err)

	f.store.failWrites = true
	_, err = f.svc.AddIncome(ctx, income("200", "gift", "2024-01-02"))
	require.ErrorIs(t, err, core.ErrPersistenceUnavailable)

	l, err := f.svc.Ledger()
	require.NoError(t, err)
	assert.Equal(t, 1, l.IncomeCount())
	assert.Len(t, f.pub.messages, 1, "nothing is announced for an unsaved change")

	f.store.failWrites = false
	_, err = f.svc.AddIncome(ctx, income("200", "gift", "2024-01-02"))
	require.NoError(t, err)
	assert.Len(t, stored(t, f.store, "alice").Incomes, 2)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("connection refused")

	require.NoError(t, f.svc.SetBudget(context.Background(), "food", decimal.NewFromInt(300)))
	rec := stored(t, f.store, "alice")
	assert.True(t, rec.Limits["food"].Equal(decimal.NewFromInt(300)))
	assert.True(t, rec.Spent["food"].IsZero())
	require.Len(t, f.pub.messages, 1)
	assert.Equal(t, -1, f.pub.messages[0].Index)
}

func TestUpdateAndDeleteFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddExpense(ctx, expense("100", "food", "2024-01-01"))
	require.NoError(t, err)
	_, err = f.svc.AddExpense(ctx, expense("40", "rent", "2024-01-15"))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateExpense(ctx, 0, expense("60", "rent", "2024-02-01")))
	removed, err := f.svc.DeleteExpense(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "rent", removed.Category)

	l, err := f.svc.Ledger()
	require.NoError(t, err)
	require.NoError(t, l.Verify())
	spent, _ := l.Spent("rent")
	assert.True(t, spent.Equal(decimal.NewFromInt(60)))
	food, _ := l.Spent("food")
	assert.True(t, food.IsZero())
	jan, _ := l.MonthTotal("2024-01")
	assert.True(t, jan.IsZero())

	ops := make([]string, 0, len(f.pub.messages))
	for _, m := range f.pub.messages {
		ops = append(ops, m.Operation)
	}
	assert.Equal(t, []string{log.OpAddExpense, log.OpAddExpense, log.OpUpdateExpense, log.OpDeleteExpense}, ops)
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddExpense(ctx, expense("10", "food", "2024-01-01"))
	require.NoError(t, err)

	require.NoError(t, f.svc.AddProfile(ctx, "bob"))
	assert.Equal(t, "bob", f.svc.Active())
	l, err := f.svc.Ledger()
	require.NoError(t, err)
	assert.Zero(t, l.ExpenseCount())

	assert.ErrorIs(t, f.svc.SwitchProfile(ctx, "alice", "alice"), core.ErrAuthenticationFailed)
	require.NoError(t, f.svc.SwitchProfile(ctx, "bob", "alice"))
	l, err = f.svc.Ledger()
	require.NoError(t, err)
	assert.Equal(t, 1, l.ExpenseCount())

	users, err := f.svc.Profiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestNoActiveProfile(t *testing.T) {
	svc := NewLedgerService(profile.NewManager(storage.NewMemoryStore(nil), profile.Options{Logger: log.Discard()}), nil, log.Discard())

	_, err := svc.Ledger()
	assert.ErrorIs(t, err, core.ErrNoActiveProfile)
	_, err = svc.AddExpense(context.Background(), expense("1", "food", "2024-01-01"))
	assert.ErrorIs(t, err, core.ErrNoActiveProfile)
}
