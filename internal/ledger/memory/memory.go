// Package memory is the in-memory entry store used for development and
// tests. It honors the same append/list contract as the SQLite store.
package memory

import (
	"context"
	"sync"
	"time"

	"fcd/internal/core"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	entries []core.Entry
}

func New() *Store {
	return &Store{nextID: 1}
}

// AppendEntry stores the entry, assigning ID and CreatedAt.
func (s *Store) AppendEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	s.nextID++
	s.entries = append(s.entries, e)
	return e, nil
}

// ListEntries returns a copy of the current list so callers can never
// mutate the store through the snapshot.
func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
