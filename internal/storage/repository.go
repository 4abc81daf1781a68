// Package storage is the SQLite repository shared by the bot and the sync
// worker. It holds the member registry, notification preferences and the
// local mirror of the ledger with its sync state.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"duit/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- members ---

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, display_name, role, joined_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.DisplayName, string(m.Role), m.JoinedAt.UTC())
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// GetMember returns the member or (zero, false) when unknown.
func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (core.Member, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, role, joined_at FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, false, nil
	}
	if err != nil {
		return core.Member{}, false, fmt.Errorf("get member: %w", err)
	}
	return m, true, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name, role, joined_at FROM members ORDER BY joined_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateMemberName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET display_name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update member name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMember removes the registry row only. Ledger entries keep their
// owner_id and denormalized owner_name.
func (r *SQLiteRepository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (core.Member, error) {
	var m core.Member
	var role string
	if err := row.Scan(&m.ID, &m.DisplayName, &role, &m.JoinedAt); err != nil {
		return core.Member{}, err
	}
	m.Role = core.Role(role)
	return m, nil
}

// --- notification preferences ---

// GetPreferences returns the stored flags, or (zero, false) when the member
// has no record yet. Default policy lives in the prefs package, not here.
func (r *SQLiteRepository) GetPreferences(ctx context.Context, memberID string) (core.Preferences, bool, error) {
	var daily, weekly, monthly int
	err := r.db.QueryRowContext(ctx,
		`SELECT daily, weekly, monthly FROM notification_preferences WHERE member_id = ?`,
		memberID).Scan(&daily, &weekly, &monthly)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Preferences{}, false, nil
	}
	if err != nil {
		return core.Preferences{}, false, fmt.Errorf("get preferences: %w", err)
	}
	return core.Preferences{
		Daily:   daily != 0,
		Weekly:  weekly != 0,
		Monthly: monthly != 0,
	}, true, nil
}

func (r *SQLiteRepository) UpsertPreferences(ctx context.Context, memberID string, p core.Preferences) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_preferences (member_id, daily, weekly, monthly, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET
		   daily = excluded.daily,
		   weekly = excluded.weekly,
		   monthly = excluded.monthly,
		   updated_at = excluded.updated_at`,
		memberID, boolInt(p.Daily), boolInt(p.Weekly), boolInt(p.Monthly), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- ledger mirror ---

// EntryRecord is a locally stored entry with its database id and sync state.
type EntryRecord struct {
	ID     int64
	Entry  core.LedgerEntry
	Synced bool
}

// AppendEntry stores one entry in the local mirror, unsynced.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (recorded_at, occurred_on, kind, category, amount, description, owner_id, owner_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC(), e.OccurredOn.Format("2006-01-02"), string(e.Kind),
		e.Category, e.Amount.String(), e.Description, e.OwnerID, e.OwnerName)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", id,
		"kind", e.Kind,
		"category", e.Category,
		"amount", e.Amount.String(),
		"owner", e.OwnerID)
	return id, nil
}

// GetEntry loads one entry by its local id.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (EntryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, recorded_at, occurred_on, kind, category, amount, description, owner_id, owner_name, synced
		 FROM entries WHERE id = ?`, id)
	rec, err := scanEntry(row)
	if err != nil {
		return EntryRecord{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return rec, nil
}

// QueryAll implements ledger.RowSource over the local mirror, letting the bot
// aggregate without a round trip to the spreadsheet.
func (r *SQLiteRepository) QueryAll(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, occurred_on, kind, category, amount, description, owner_id, owner_name, synced
		 FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, rec.Entry)
	}
	return out, rows.Err()
}

// GetPendingEntries returns up to limit entries not yet synced to the
// spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingEntries(ctx context.Context, limit int) ([]EntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, occurred_on, kind, category, amount, description, owner_id, owner_name, synced
		 FROM entries WHERE synced = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending entries: %w", err)
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE entries SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE entries SET sync_error = sync_error + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

func scanEntry(row rowScanner) (EntryRecord, error) {
	var (
		rec      EntryRecord
		occurred string
		kind     string
		amount   string
		synced   int
	)
	err := row.Scan(&rec.ID, &rec.Entry.Timestamp, &occurred, &kind, &rec.Entry.Category,
		&amount, &rec.Entry.Description, &rec.Entry.OwnerID, &rec.Entry.OwnerName, &synced)
	if err != nil {
		return EntryRecord{}, err
	}

	day, err := time.Parse("2006-01-02", occurred)
	if err != nil {
		return EntryRecord{}, fmt.Errorf("parse occurred_on %q: %w", occurred, err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return EntryRecord{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	rec.Entry.OccurredOn = core.DateOf(day)
	rec.Entry.Kind = core.EntryKind(kind)
	rec.Entry.Amount = amt
	rec.Synced = synced != 0
	return rec, nil
}
