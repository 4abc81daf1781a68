package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"duit/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func storedEntry(owner string, day core.Date, amount int64) core.LedgerEntry {
	return core.LedgerEntry{
		Timestamp:   day.Time.Add(12 * time.Hour),
		OccurredOn:  day,
		Kind:        core.Expense,
		Category:    "MAKANAN",
		Amount:      decimal.NewFromInt(amount),
		Description: "makan siang",
		OwnerID:     owner,
		OwnerName:   "Budi",
	}
}

func TestMemberRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := core.Member{
		ID:          "100",
		DisplayName: "Budi",
		Role:        core.RoleAdmin,
		JoinedAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateMember(ctx, m); err != nil {
		t.Fatalf("create member: %v", err)
	}

	got, ok, err := repo.GetMember(ctx, "100")
	if err != nil || !ok {
		t.Fatalf("get member: ok=%v err=%v", ok, err)
	}
	if got.DisplayName != "Budi" || got.Role != core.RoleAdmin {
		t.Errorf("got %+v", got)
	}

	if _, ok, err := repo.GetMember(ctx, "missing"); err != nil || ok {
		t.Errorf("missing member: ok=%v err=%v, want false, nil", ok, err)
	}

	n, err := repo.CountMembers(ctx)
	if err != nil || n != 1 {
		t.Errorf("count = %d, err = %v, want 1", n, err)
	}

	if err := repo.UpdateMemberName(ctx, "100", "Budiman"); err != nil {
		t.Fatalf("update name: %v", err)
	}
	got, _, _ = repo.GetMember(ctx, "100")
	if got.DisplayName != "Budiman" {
		t.Errorf("name = %q after rename", got.DisplayName)
	}

	if err := repo.UpdateMemberName(ctx, "missing", "X"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("renaming missing member: %v, want sql.ErrNoRows", err)
	}

	if err := repo.DeleteMember(ctx, "100"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.GetMember(ctx, "100"); ok {
		t.Error("member still present after delete")
	}
}

func TestListMembersJoinOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"300", "100", "200"} {
		err := repo.CreateMember(ctx, core.Member{
			ID:          id,
			DisplayName: id,
			Role:        core.RoleMember,
			JoinedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	list, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"300", "100", "200"}
	for i, m := range list {
		if m.ID != want[i] {
			t.Errorf("list[%d] = %s, want %s (join order)", i, m.ID, want[i])
		}
	}
}

func TestPreferencesUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.GetPreferences(ctx, "100"); err != nil || ok {
		t.Fatalf("unset prefs: ok=%v err=%v, want false, nil", ok, err)
	}

	p := core.Preferences{Daily: true, Weekly: false, Monthly: true}
	if err := repo.UpsertPreferences(ctx, "100", p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := repo.GetPreferences(ctx, "100")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}

	// Second upsert overwrites in place.
	p.Daily = false
	if err := repo.UpsertPreferences(ctx, "100", p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _, _ = repo.GetPreferences(ctx, "100")
	if got.Daily {
		t.Errorf("got %+v after overwrite", got)
	}
}

func TestEntryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := core.NewDate(2025, 3, 15)

	id, err := repo.AppendEntry(ctx, storedEntry("100", day, 50000))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	rec, err := repo.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if rec.Synced {
		t.Error("new entry should start unsynced")
	}
	if !rec.Entry.OccurredOn.Equal(day.Time) {
		t.Errorf("occurred_on = %v, want %v", rec.Entry.OccurredOn, day)
	}
	if rec.Entry.Amount.String() != "50000" {
		t.Errorf("amount = %s", rec.Entry.Amount)
	}

	pending, err := repo.GetPendingEntries(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Errorf("pending = %+v, want the new entry", pending)
	}

	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, _ = repo.GetPendingEntries(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending after sync = %d, want 0", len(pending))
	}

	rec, _ = repo.GetEntry(ctx, id)
	if !rec.Synced {
		t.Error("entry should report synced")
	}
}

func TestAppendEntryRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	bad := storedEntry("100", core.NewDate(2025, 3, 15), 50000)
	bad.Amount = decimal.Zero
	if _, err := repo.AppendEntry(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("append invalid: %v, want ErrInvalidAmount", err)
	}
}

func TestQueryAllReturnsAllEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	day := core.NewDate(2025, 3, 15)
	for i := int64(1); i <= 3; i++ {
		if _, err := repo.AppendEntry(ctx, storedEntry("100", day, i*1000)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := repo.QueryAll(ctx)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len = %d, want 3", len(entries))
	}
}
