// Package storage persists encoded ledger records keyed by username.
//
// A Store only moves opaque bytes; the record layout belongs to package codec.
// Failures to open, read or write wrap core.ErrPersistenceUnavailable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

// ErrNotFound is returned by Read when no record exists for the username.
var ErrNotFound = errors.New("ledger record not found")

// Store is the port between profiles and durable storage.
type Store interface {
	// Read returns the stored record or ErrNotFound.
	Read(ctx context.Context, username string) ([]byte, error)
	// Write replaces the stored record entirely.
	Write(ctx context.Context, username string, record []byte) error
	Exists(ctx context.Context, username string) (bool, error)
	// List returns stored usernames in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidUsername rejects names that cannot safely key a file or row.
func ValidUsername(username string) error {
	if !usernamePattern.MatchString(username) || username == "." || username == ".." {
		return fmt.Errorf("%w %q: use 1-64 letters, digits, '.', '_' or '-'", core.ErrInvalidUsername, username)
	}
	return nil
}

func storeLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return logger.WithComponent(log.ComponentStorage)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrPersistenceUnavailable, op, err)
}
