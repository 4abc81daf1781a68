// Package pending holds categorized entry drafts awaiting user confirmation.
// Each draft gets an opaque token carried through the chat inline keyboard;
// unconfirmed drafts expire after a short TTL.
package pending

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"duit/internal/categorizer"

	"github.com/google/uuid"
)

const (
	defaultTTL      = 5 * time.Minute
	cleanupInterval = time.Minute
)

type item struct {
	ownerID   string
	draft     categorizer.Draft
	expiresAt time.Time
}

type Store struct {
	mu     sync.Mutex
	items  map[string]item
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		items:  map[string]item{},
		ttl:    defaultTTL,
		now:    time.Now,
		logger: logger,
	}
}

// Put stores a draft for the owner and returns its confirmation token.
func (s *Store) Put(ownerID string, draft categorizer.Draft) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.items[token] = item{
		ownerID:   ownerID,
		draft:     draft,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return token
}

// Take removes and returns the draft for a token, but only for its owner.
// Expired or unknown tokens report false.
func (s *Store) Take(token, ownerID string) (categorizer.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[token]
	if !ok || it.ownerID != ownerID {
		return categorizer.Draft{}, false
	}
	if s.now().After(it.expiresAt) {
		delete(s.items, token)
		return categorizer.Draft{}, false
	}
	delete(s.items, token)
	return it.draft, true
}

// Cancel drops a draft without confirming it. Reports whether something
// was actually dropped.
func (s *Store) Cancel(token, ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[token]
	if !ok || it.ownerID != ownerID {
		return false
	}
	delete(s.items, token)
	return true
}

// CleanExpired drops every expired draft and returns how many went.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, it := range s.items {
		if now.After(it.expiresAt) {
			delete(s.items, token)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired drafts every minute until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanExpired(); n > 0 {
				s.logger.Debug("expired pending drafts removed", "count", n)
			}
		}
	}
}
