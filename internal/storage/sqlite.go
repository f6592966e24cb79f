package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"budgettracker/internal/log"
)

// SQLiteStore keeps every user's record as one row of the ledgers table.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, unavailable("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, unavailable("open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("ping database", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, unavailable("migrate", err)
	}

	return &SQLiteStore{db: db, logger: storeLogger(logger)}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, username string) ([]byte, error) {
	if err := ValidUsername(username); err != nil {
		return nil, err
	}
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM ledgers WHERE username = ?`, username).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("select record", err)
	}
	return []byte(record), nil
}

func (s *SQLiteStore) Write(ctx context.Context, username string, record []byte) error {
	if err := ValidUsername(username); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledgers (username, record, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(username) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		username, string(record))
	if err != nil {
		return unavailable("upsert record", err)
	}

	s.logger.DebugContext(ctx, "Ledger record saved to SQLite",
		log.FieldUsername, username,
		"bytes", len(record))

	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, username string) (bool, error) {
	if err := ValidUsername(username); err != nil {
		return false, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledgers WHERE username = ?`, username).Scan(&n); err != nil {
		return false, unavailable("count records", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM ledgers ORDER BY username`)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, unavailable("scan username", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate usernames", err)
	}
	return out, nil
}
