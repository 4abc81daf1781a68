// Package ledger treats the append-only transaction log as a queryable store.
// It owns no entries; the backing collaborator (spreadsheet, SQLite mirror or
// in-memory fake) does. All filtering happens client-side over the raw feed.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"duit/internal/core"
)

// ErrStoreUnavailable is returned when the backing collaborator cannot be
// reached. It is never retried at this layer; retry policy belongs to callers.
var ErrStoreUnavailable = errors.New("ledger store unavailable")

// Ports for outbound adapters.
type (
	// Appender persists one entry to the backing store.
	Appender interface {
		Append(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}

	// RowSource exposes the raw append-only feed. No ordering is guaranteed.
	RowSource interface {
		QueryAll(ctx context.Context) ([]core.LedgerEntry, error)
	}

	// Querier is the ledger query interface used by every aggregation.
	Querier interface {
		FetchEntries(ctx context.Context, f Filter) ([]core.LedgerEntry, error)
	}
)

// Filter selects entries. Zero-valued OwnerID and Kind match everything;
// DateFrom and DateTo are inclusive and compared against OccurredOn, never
// against the recording timestamp.
type Filter struct {
	OwnerID  string
	DateFrom core.Date
	DateTo   core.Date
	Kind     core.EntryKind
}

// Matches reports whether the entry passes the filter.
func (f Filter) Matches(e core.LedgerEntry) bool {
	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if !f.DateFrom.IsZero() && e.OccurredOn.Before(f.DateFrom.Time) {
		return false
	}
	if !f.DateTo.IsZero() && e.OccurredOn.After(f.DateTo.Time) {
		return false
	}
	return true
}

// Store implements Querier over a RowSource by scanning the whole feed and
// filtering client-side. The ledger is a single household's log, so a linear
// scan per query is the deliberate tradeoff over indexing.
type Store struct {
	src RowSource
}

var _ Querier = (*Store)(nil)

func NewStore(src RowSource) *Store {
	return &Store{src: src}
}

// FetchEntries returns entries matching the filter in no guaranteed order.
func (s *Store) FetchEntries(ctx context.Context, f Filter) ([]core.LedgerEntry, error) {
	rows, err := s.src.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query ledger feed: %w: %v", ErrStoreUnavailable, err)
	}
	var out []core.LedgerEntry
	for _, e := range rows {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
