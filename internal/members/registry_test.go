package members

import (
	"context"
	"errors"
	"testing"
	"time"

	"duit/internal/core"
)

type fakeStore struct {
	members map[string]core.Member
	order   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: map[string]core.Member{}}
}

func (s *fakeStore) CreateMember(_ context.Context, m core.Member) error {
	s.members[m.ID] = m
	s.order = append(s.order, m.ID)
	return nil
}

func (s *fakeStore) GetMember(_ context.Context, id string) (core.Member, bool, error) {
	m, ok := s.members[id]
	return m, ok, nil
}

func (s *fakeStore) ListMembers(_ context.Context) ([]core.Member, error) {
	out := make([]core.Member, 0, len(s.order))
	for _, id := range s.order {
		if m, ok := s.members[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) CountMembers(_ context.Context) (int, error) {
	return len(s.members), nil
}

func (s *fakeStore) UpdateMemberName(_ context.Context, id, name string) error {
	m, ok := s.members[id]
	if !ok {
		return errors.New("no such member")
	}
	m.DisplayName = name
	s.members[id] = m
	return nil
}

func (s *fakeStore) DeleteMember(_ context.Context, id string) error {
	delete(s.members, id)
	return nil
}

func newTestRegistry() (*Registry, *fakeStore) {
	store := newFakeStore()
	r := NewRegistry(store)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return r, store
}

func TestRegisterFirstBecomesAdmin(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	first, isFirst, err := r.Register(ctx, "100", "Budi")
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	if !isFirst {
		t.Error("expected first registrant flag")
	}
	if first.Role != core.RoleAdmin {
		t.Errorf("first role = %q, want admin", first.Role)
	}

	second, isFirst, err := r.Register(ctx, "200", "Sari")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if isFirst {
		t.Error("second registrant flagged as first")
	}
	if second.Role != core.RoleMember {
		t.Errorf("second role = %q, want member", second.Role)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	if _, _, err := r.Register(ctx, "100", "Budi"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := r.Register(ctx, "100", "Budi"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate register error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegisterBlankNameDefaults(t *testing.T) {
	r, _ := newTestRegistry()

	m, _, err := r.Register(context.Background(), "100", "   ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if m.DisplayName != "User" {
		t.Errorf("display name = %q, want User", m.DisplayName)
	}
}

func TestRemoveRules(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	r.Register(ctx, "admin", "Budi")
	r.Register(ctx, "member", "Sari")

	if _, err := r.Remove(ctx, "member", "admin"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin remove error = %v, want ErrNotAdmin", err)
	}
	if _, err := r.Remove(ctx, "admin", "admin"); !errors.Is(err, ErrSelfRemoval) {
		t.Errorf("self remove error = %v, want ErrSelfRemoval", err)
	}
	if _, err := r.Remove(ctx, "admin", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove unknown error = %v, want ErrNotFound", err)
	}

	removed, err := r.Remove(ctx, "admin", "member")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.ID != "member" {
		t.Errorf("removed id = %q, want member", removed.ID)
	}
	if r.IsAuthorized(ctx, "member") {
		t.Error("removed member still authorized")
	}
}

func TestRenameDoesNotTouchUnknown(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	if err := r.Rename(ctx, "nobody", "New"); err == nil {
		t.Error("expected error renaming unknown member")
	}

	r.Register(ctx, "100", "Budi")
	if err := r.Rename(ctx, "100", "Budiman"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := r.DisplayName(ctx, "100"); got != "Budiman" {
		t.Errorf("display name = %q, want Budiman", got)
	}
}

func TestIsAdminAndAuthorized(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	r.Register(ctx, "admin", "Budi")
	r.Register(ctx, "member", "Sari")

	if !r.IsAdmin(ctx, "admin") {
		t.Error("first registrant should be admin")
	}
	if r.IsAdmin(ctx, "member") {
		t.Error("second registrant should not be admin")
	}
	if r.IsAuthorized(ctx, "stranger") {
		t.Error("stranger should not be authorized")
	}
	if got := r.DisplayName(ctx, "stranger"); got != "Unknown" {
		t.Errorf("stranger display name = %q, want Unknown", got)
	}
}
