package storage

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps records in process memory. Nothing survives Close.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStore returns a store preloaded with seed, which is copied.
func NewMemoryStore(seed map[string][]byte) *MemoryStore {
	s := &MemoryStore{records: make(map[string][]byte, len(seed))}
	for u, r := range seed {
		s.records[u] = slices.Clone(r)
	}
	return s
}

func (s *MemoryStore) Read(_ context.Context, username string) ([]byte, error) {
	if err := ValidUsername(username); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[username]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(r), nil
}

func (s *MemoryStore) Write(_ context.Context, username string, record []byte) error {
	if err := ValidUsername(username); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[username] = slices.Clone(record)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, username string) (bool, error) {
	if err := ValidUsername(username); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[username]
	return ok, nil
}

func (s *MemoryStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.records)), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}
