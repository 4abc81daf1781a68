// Package memory is an in-memory ledger backend for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"duit/internal/core"
	"duit/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	items []core.LedgerEntry
}

var (
	_ ledger.Appender  = (*Store)(nil)
	_ ledger.RowSource = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Seed replaces the stored entries. Test helper.
func (s *Store) Seed(entries ...core.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.LedgerEntry(nil), entries...)
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// QueryAll returns a copy of the stored entries in append order.
func (s *Store) QueryAll(_ context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry(nil), s.items...), nil
}
