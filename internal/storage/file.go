package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"budgettracker/internal/log"
)

// FileExt is appended to the username to name its record file.
const FileExt = ".ledger"

// FileStore keeps one record file per user in a directory.
type FileStore struct {
	dir    string
	logger *log.Logger
}

func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("create data directory", err)
	}
	return &FileStore{dir: dir, logger: storeLogger(logger)}, nil
}

func (s *FileStore) path(username string) string {
	return filepath.Join(s.dir, username+FileExt)
}

func (s *FileStore) Read(_ context.Context, username string) ([]byte, error) {
	if err := ValidUsername(username); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(username))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("open record", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, unavailable("read record", err)
	}
	return data, nil
}

// Write stores the record through a temp file in the same directory which is
// synced and renamed over the old record, so a crash leaves either the old or
// the new record on disk.
func (s *FileStore) Write(_ context.Context, username string, record []byte) error {
	if err := ValidUsername(username); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+username+"-*.tmp")
	if err != nil {
		return unavailable("create temp record", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("Failed to remove temp record",
					"path", tmpPath,
					log.FieldUsername, username,
					log.FieldError, err)
			}
		}
	}()

	if _, err := tmp.Write(record); err != nil {
		return unavailable("write record", err)
	}
	if err := tmp.Sync(); err != nil {
		return unavailable("sync record", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("close record", err)
	}
	if err := os.Rename(tmpPath, s.path(username)); err != nil {
		return unavailable("replace record", err)
	}
	committed = true
	s.logger.Debug("Ledger record saved to file",
		log.FieldUsername, username,
		"bytes", len(record))
	return nil
}

func (s *FileStore) Exists(_ context.Context, username string) (bool, error) {
	if err := ValidUsername(username); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(username))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("stat record", err)
	}
	return true, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, FileExt) {
			continue
		}
		user := strings.TrimSuffix(name, FileExt)
		if ValidUsername(user) != nil {
			continue
		}
		out = append(out, user)
	}
	slices.Sort(out)
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}
