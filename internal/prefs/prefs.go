// Package prefs is the notification preference store: per member, per
// notification kind, one boolean. Records are lazy-materialized; a member
// with no record gets the all-enabled default ("opt-out", not "opt-in").
package prefs

import (
	"context"
	"fmt"

	"duit/internal/core"
)

// Repo is the durable key-value backing. Writes are always scoped to one
// member, so no multi-key transactions are required.
type Repo interface {
	GetPreferences(ctx context.Context, memberID string) (core.Preferences, bool, error)
	UpsertPreferences(ctx context.Context, memberID string, p core.Preferences) error
}

type Store struct {
	repo Repo
}

func NewStore(repo Repo) *Store {
	return &Store{repo: repo}
}

// Get returns the member's flags, defaulting to all-enabled when no record
// exists. The default is not persisted on read.
func (s *Store) Get(ctx context.Context, memberID string) (core.Preferences, error) {
	p, ok, err := s.repo.GetPreferences(ctx, memberID)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if !ok {
		return core.DefaultPreferences(), nil
	}
	return p, nil
}

// Set merges a partial patch into the current preferences and persists the
// result. Unnamed kinds keep their value.
func (s *Store) Set(ctx context.Context, memberID string, patch core.PreferencePatch) (core.Preferences, error) {
	current, err := s.Get(ctx, memberID)
	if err != nil {
		return core.Preferences{}, err
	}
	updated := current.Apply(patch)
	if err := s.repo.UpsertPreferences(ctx, memberID, updated); err != nil {
		return core.Preferences{}, fmt.Errorf("store preferences: %w", err)
	}
	return updated, nil
}
