// Package members is the registry of household participants. The very first
// registration becomes the admin; everyone after joins as a member.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"duit/internal/core"
)

var (
	ErrAlreadyRegistered = errors.New("member already registered")
	ErrNotFound          = errors.New("member not found")
	ErrNotAdmin          = errors.New("only admins can do that")
	ErrSelfRemoval       = errors.New("cannot remove yourself")
)

// Store is the durable backing for the registry.
type Store interface {
	CreateMember(ctx context.Context, m core.Member) error
	GetMember(ctx context.Context, id string) (core.Member, bool, error)
	ListMembers(ctx context.Context) ([]core.Member, error)
	CountMembers(ctx context.Context) (int, error)
	UpdateMemberName(ctx context.Context, id, name string) error
	DeleteMember(ctx context.Context, id string) error
}

type Registry struct {
	store Store
	now   func() time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Register creates a member. The first registrant is promoted to admin;
// the returned bool reports whether that happened.
func (r *Registry) Register(ctx context.Context, id, name string) (core.Member, bool, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "User"
	}

	if _, ok, err := r.store.GetMember(ctx, id); err != nil {
		return core.Member{}, false, fmt.Errorf("lookup member: %w", err)
	} else if ok {
		return core.Member{}, false, ErrAlreadyRegistered
	}

	count, err := r.store.CountMembers(ctx)
	if err != nil {
		return core.Member{}, false, fmt.Errorf("count members: %w", err)
	}

	m := core.Member{
		ID:          id,
		DisplayName: name,
		Role:        core.RoleMember,
		JoinedAt:    r.now(),
	}
	first := count == 0
	if first {
		m.Role = core.RoleAdmin
	}

	if err := r.store.CreateMember(ctx, m); err != nil {
		return core.Member{}, false, fmt.Errorf("create member: %w", err)
	}
	return m, first, nil
}

// Get returns a member by id.
func (r *Registry) Get(ctx context.Context, id string) (core.Member, error) {
	m, ok, err := r.store.GetMember(ctx, id)
	if err != nil {
		return core.Member{}, fmt.Errorf("lookup member: %w", err)
	}
	if !ok {
		return core.Member{}, ErrNotFound
	}
	return m, nil
}

// List returns all members in join order.
func (r *Registry) List(ctx context.Context) ([]core.Member, error) {
	return r.store.ListMembers(ctx)
}

// IsAuthorized reports whether the id belongs to a registered member.
func (r *Registry) IsAuthorized(ctx context.Context, id string) bool {
	_, ok, err := r.store.GetMember(ctx, id)
	return err == nil && ok
}

// IsAdmin reports whether the id belongs to the admin.
func (r *Registry) IsAdmin(ctx context.Context, id string) bool {
	m, ok, err := r.store.GetMember(ctx, id)
	return err == nil && ok && m.Role == core.RoleAdmin
}

// DisplayName resolves the current name, "Unknown" when unregistered. This
// is for live UI only: ledger entries carry their own recorded owner name.
func (r *Registry) DisplayName(ctx context.Context, id string) string {
	m, ok, err := r.store.GetMember(ctx, id)
	if err != nil || !ok {
		return "Unknown"
	}
	return m.DisplayName
}

// Rename updates the member's display name going forward. Historical ledger
// entries are untouched.
func (r *Registry) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("empty name")
	}
	if err := r.store.UpdateMemberName(ctx, id, name); err != nil {
		return fmt.Errorf("rename member: %w", err)
	}
	return nil
}

// Remove deletes a member. Admin-only; the admin cannot remove themselves.
// Ledger entries owned by the removed member are retained.
func (r *Registry) Remove(ctx context.Context, adminID, targetID string) (core.Member, error) {
	if !r.IsAdmin(ctx, adminID) {
		return core.Member{}, ErrNotAdmin
	}
	if adminID == targetID {
		return core.Member{}, ErrSelfRemoval
	}
	target, ok, err := r.store.GetMember(ctx, targetID)
	if err != nil {
		return core.Member{}, fmt.Errorf("lookup member: %w", err)
	}
	if !ok {
		return core.Member{}, ErrNotFound
	}
	if err := r.store.DeleteMember(ctx, targetID); err != nil {
		return core.Member{}, fmt.Errorf("delete member: %w", err)
	}
	return target, nil
}
