// Package profile maps usernames to their ledgers and is the only path
// between an in-memory ledger and its stored record.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgettracker/internal/cache"
	"budgettracker/internal/codec"
	"budgettracker/internal/core"
	"budgettracker/internal/ledger"
	"budgettracker/internal/log"
	"budgettracker/internal/storage"
)

// Options tunes the loaded-profile cache.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Logger    *log.Logger
}

// Manager holds the active profile and a cache of recently loaded ledgers.
// A cached ledger is always the last one saved for that user, since Save is
// the only writer.
//
// Ledgers handed out by Manager must be treated as read-only; to change one,
// Clone it, mutate the clone and pass it to Save.
type Manager struct {
	store  storage.Store
	loaded cache.Cache[*ledger.Ledger]
	logger *log.Logger

	active   string
	ledger   *ledger.Ledger
	readOnly bool
}

func NewManager(store storage.Store, opts Options) *Manager {
	if opts.CacheSize == 0 {
		opts.CacheSize = 8
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		store:  store,
		loaded: cache.NewLRUCache[*ledger.Ledger](opts.CacheSize, opts.CacheTTL),
		logger: logger.WithComponent(log.ComponentProfile),
	}
}

// Load returns the stored ledger for username, or an empty ledger when
// nothing is stored yet. If the record is corrupt it returns the ledger
// parsed up to the corruption together with an error wrapping
// core.ErrPersistenceCorrupt.
func (m *Manager) Load(ctx context.Context, username string) (*ledger.Ledger, error) {
	if err := storage.ValidUsername(username); err != nil {
		return nil, err
	}
	if l, ok := m.loaded.Get(username); ok {
		return l, nil
	}

	data, err := m.store.Read(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		m.logger.DebugContext(ctx, "No stored ledger, starting empty", log.FieldUsername, username)
		l := ledger.New()
		m.loaded.Set(username, l)
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", username, err)
	}

	snap, err := codec.Unmarshal(data)
	if err != nil {
		m.logger.ErrorContext(ctx, "Stored ledger is corrupt",
			log.FieldUsername, username,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeCorrupt)
		return ledger.FromSnapshot(snap), fmt.Errorf("load %q: %w", username, err)
	}

	l := ledger.FromSnapshot(snap)
	if err := l.Verify(); err != nil {
		// Stored indices are kept as-is so the record round-trips; flag it.
		m.logger.WarnContext(ctx, "Stored indices disagree with entries",
			log.FieldUsername, username,
			log.FieldError, err)
	}
	m.loaded.Set(username, l)
	return l, nil
}

// Open makes username the active profile. A corrupt record is activated
// read-only with the entries parsed before the corruption, and the corrupt
// error is still returned; Save refuses to write it until the record is
// repaired. Any other load failure leaves the previous profile active.
func (m *Manager) Open(ctx context.Context, username string) error {
	if c, ok := m.loaded.(cache.Cleaner); ok {
		if n := c.CleanExpired(); n > 0 {
			m.logger.DebugContext(ctx, "Dropped expired ledgers", "count", n)
		}
	}
	l, err := m.Load(ctx, username)
	if errors.Is(err, core.ErrPersistenceCorrupt) && l != nil {
		m.activate(username, l)
		m.readOnly = true
		m.logger.WarnContext(ctx, "Corrupt profile opened read-only",
			log.FieldUsername, username,
			"expenses", l.ExpenseCount(),
			"incomes", l.IncomeCount())
		return err
	}
	if err != nil {
		return err
	}
	m.activate(username, l)
	return nil
}

// Exists reports whether a record is stored for username.
func (m *Manager) Exists(ctx context.Context, username string) (bool, error) {
	if err := storage.ValidUsername(username); err != nil {
		return false, err
	}
	return m.store.Exists(ctx, username)
}

// Add creates and activates a new profile with an empty, persisted ledger.
func (m *Manager) Add(ctx context.Context, username string) error {
	if err := storage.ValidUsername(username); err != nil {
		return err
	}
	exists, err := m.store.Exists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", core.ErrProfileExists, username)
	}

	l := ledger.New()
	if err := m.write(ctx, username, l); err != nil {
		return err
	}
	m.loaded.Set(username, l)
	m.activate(username, l)
	return nil
}

// Switch leaves the active profile for target. current must name the active
// profile; this is a confirmation by name, not access control.
func (m *Manager) Switch(ctx context.Context, current, target string) error {
	if m.active == "" {
		return core.ErrNoActiveProfile
	}
	if current != m.active {
		m.logger.WarnContext(ctx, "Profile switch refused",
			log.FieldUsername, m.active,
			log.FieldErrorType, log.ErrorTypeAuth)
		return fmt.Errorf("%w: %q is not the active profile", core.ErrAuthenticationFailed, current)
	}
	return m.Open(ctx, target)
}

// Save writes l as the active profile's ledger and, once stored, makes it the
// active ledger. On failure the previous active ledger is kept.
func (m *Manager) Save(ctx context.Context, l *ledger.Ledger) error {
	if m.active == "" {
		return core.ErrNoActiveProfile
	}
	if m.readOnly {
		return fmt.Errorf("%w: profile %q is read-only until its record is repaired",
			core.ErrPersistenceCorrupt, m.active)
	}
	if err := m.write(ctx, m.active, l); err != nil {
		return err
	}
	m.ledger = l
	m.loaded.Set(m.active, l)
	return nil
}

func (m *Manager) write(ctx context.Context, username string, l *ledger.Ledger) error {
	data, err := codec.Marshal(l.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceUnavailable, err)
	}
	if err := m.store.Write(ctx, username, data); err != nil {
		m.logger.ErrorContext(ctx, "Failed to save ledger",
			log.FieldUsername, username,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypePersistence)
		return fmt.Errorf("save %q: %w", username, err)
	}
	return nil
}

func (m *Manager) activate(username string, l *ledger.Ledger) {
	m.active = username
	m.ledger = l
	m.readOnly = false
	m.logger.Info("Profile active", log.FieldUsername, username)
}

// Active returns the active username and ledger. The ledger is nil when no
// profile is open.
func (m *Manager) Active() (string, *ledger.Ledger) {
	return m.active, m.ledger
}

// ReadOnly reports whether the active profile was opened from a corrupt
// record and cannot be saved.
func (m *Manager) ReadOnly() bool {
	return m.readOnly
}

// Profiles lists every stored username.
func (m *Manager) Profiles(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
