package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"
	"duit/internal/ledger/memory"

	"github.com/shopspring/decimal"
)

func testEntry(owner string, on core.Date, kind core.EntryKind, category string, amount int64) core.LedgerEntry {
	return core.LedgerEntry{
		Timestamp:   on.Time,
		OccurredOn:  on,
		Kind:        kind,
		Category:    category,
		Amount:      decimal.NewFromInt(amount),
		OwnerID:     owner,
		OwnerName:   "Budi",
		Description: "test",
	}
}

func querierWith(entries ...core.LedgerEntry) ledger.Querier {
	store := memory.New()
	store.Seed(entries...)
	return ledger.NewStore(store)
}

func TestDailySummaryTotals(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	q := querierWith(
		testEntry("100", day, core.Expense, "MAKANAN", 50000),
		testEntry("100", day, core.Expense, "TRANSPORT", 20000),
		testEntry("100", day, core.Income, "GAJI", 5000000),
		// Different owner and different day must not leak in.
		testEntry("200", day, core.Expense, "MAKANAN", 99999),
		testEntry("100", day.AddDays(-1), core.Expense, "MAKANAN", 11111),
	)

	s, err := DailySummary(context.Background(), q, day, "100")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}

	if got := s.TotalExpense.String(); got != "70000" {
		t.Errorf("TotalExpense = %s, want 70000", got)
	}
	if got := s.TotalIncome.String(); got != "5000000" {
		t.Errorf("TotalIncome = %s, want 5000000", got)
	}
	if got := s.Balance().String(); got != "4930000" {
		t.Errorf("Balance = %s, want 4930000", got)
	}
	if s.EntryCount != 3 {
		t.Errorf("EntryCount = %d, want 3", s.EntryCount)
	}
}

func TestByCategoryPartitionsExpenseOnly(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	q := querierWith(
		testEntry("100", day, core.Expense, "MAKANAN", 50000),
		testEntry("100", day, core.Expense, "MAKANAN", 30000),
		testEntry("100", day, core.Expense, "TRANSPORT", 20000),
		testEntry("100", day, core.Income, "GAJI", 5000000),
	)

	s, err := DailySummary(context.Background(), q, day, "100")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}

	if _, ok := s.ByCategory["GAJI"]; ok {
		t.Error("income category must not appear in ByCategory")
	}

	// Category totals sum back to TotalExpense exactly.
	sum := decimal.Zero
	for _, v := range s.ByCategory {
		sum = sum.Add(v)
	}
	if !sum.Equal(s.TotalExpense) {
		t.Errorf("sum(ByCategory) = %s, TotalExpense = %s", sum, s.TotalExpense)
	}
	if got := s.ByCategory["MAKANAN"].String(); got != "80000" {
		t.Errorf("MAKANAN = %s, want 80000", got)
	}
}

func TestDateMatchingUsesOccurredOn(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	// Recorded a day later than it occurred; must still land on the 15th.
	e := testEntry("100", day, core.Expense, "MAKANAN", 50000)
	e.Timestamp = time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)

	q := querierWith(e)

	onDay, err := DailySummary(context.Background(), q, day, "100")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if onDay.EntryCount != 1 {
		t.Error("entry should match its OccurredOn date")
	}

	nextDay, err := DailySummary(context.Background(), q, day.AddDays(1), "100")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if nextDay.EntryCount != 0 {
		t.Error("entry must not match its recording date")
	}
}

func TestWeeklyWindowIsSevenDaysInclusive(t *testing.T) {
	end := core.NewDate(2025, 3, 15)
	q := querierWith(
		testEntry("100", end, core.Expense, "MAKANAN", 1000),
		testEntry("100", end.AddDays(-6), core.Expense, "MAKANAN", 2000),
		// One day past the window.
		testEntry("100", end.AddDays(-7), core.Expense, "MAKANAN", 4000),
	)

	s, err := WeeklySummary(context.Background(), q, end, "100")
	if err != nil {
		t.Fatalf("WeeklySummary: %v", err)
	}
	if got := s.TotalExpense.String(); got != "3000" {
		t.Errorf("TotalExpense = %s, want 3000 (both boundary days, nothing older)", got)
	}
}

func TestMonthlySummaryBounds(t *testing.T) {
	q := querierWith(
		testEntry("100", core.NewDate(2025, 2, 1), core.Expense, "MAKANAN", 1000),
		testEntry("100", core.NewDate(2025, 2, 28), core.Expense, "MAKANAN", 2000),
		testEntry("100", core.NewDate(2025, 3, 1), core.Expense, "MAKANAN", 4000),
	)

	s, err := MonthlySummary(context.Background(), q, 2, 2025, "100")
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if got := s.TotalExpense.String(); got != "3000" {
		t.Errorf("TotalExpense = %s, want 3000", got)
	}

	if _, err := MonthlySummary(context.Background(), q, 13, 2025, "100"); err == nil {
		t.Error("month 13 should be rejected")
	}
	if _, err := MonthlySummary(context.Background(), q, 0, 2025, "100"); err == nil {
		t.Error("month 0 should be rejected")
	}
}

func TestSummarizeEmptySet(t *testing.T) {
	s := Summarize("100", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31), nil)
	if !s.Empty() {
		t.Error("empty entry set should produce an empty summary")
	}
	if !s.TotalExpense.IsZero() || !s.TotalIncome.IsZero() {
		t.Error("totals should be zero")
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	entries := []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 50000),
		testEntry("100", day, core.Expense, "TRANSPORT", 50000),
		testEntry("100", day, core.Income, "GAJI", 100000),
	}

	first := Summarize("100", day, day, entries)
	for i := 0; i < 5; i++ {
		again := Summarize("100", day, day, entries)
		if !again.TotalExpense.Equal(first.TotalExpense) || again.EntryCount != first.EntryCount {
			t.Fatal("repeated summarize over same entries diverged")
		}
		for j := range first.Entries {
			if !again.Entries[j].Amount.Equal(first.Entries[j].Amount) {
				t.Fatal("entry ordering diverged between runs")
			}
		}
	}
}

func TestEntriesSortedByAmountDescending(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	s := Summarize("100", day, day, []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 10000),
		testEntry("100", day, core.Expense, "TRANSPORT", 90000),
		testEntry("100", day, core.Income, "GAJI", 50000),
	})

	want := []string{"90000", "50000", "10000"}
	for i, e := range s.Entries {
		if e.Amount.String() != want[i] {
			t.Errorf("Entries[%d] = %s, want %s", i, e.Amount, want[i])
		}
	}
}

func TestCompareWindows(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	a := Summarize("100", day, day, []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 150000),
		testEntry("100", day, core.Expense, "HIBURAN", 50000),
	})
	b := Summarize("100", day.AddDays(-7), day.AddDays(-7), []core.LedgerEntry{
		testEntry("100", day.AddDays(-7), core.Expense, "MAKANAN", 100000),
	})

	cmp := CompareWindows(a, b)
	if cmp.PercentChange != 100 {
		t.Errorf("PercentChange = %v, want 100", cmp.PercentChange)
	}
	if cmp.PerCategoryChange["MAKANAN"] != 50 {
		t.Errorf("MAKANAN change = %v, want 50", cmp.PerCategoryChange["MAKANAN"])
	}
	// HIBURAN had no baseline; saturates to 0 rather than infinity.
	if cmp.PerCategoryChange["HIBURAN"] != 0 {
		t.Errorf("HIBURAN change = %v, want 0", cmp.PerCategoryChange["HIBURAN"])
	}
}

func TestCompareWindowsSelfIsZero(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	s := Summarize("100", day, day, []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 150000),
	})

	cmp := CompareWindows(s, s)
	if cmp.PercentChange != 0 {
		t.Errorf("comparing a window to itself: PercentChange = %v, want 0", cmp.PercentChange)
	}
	for cat, change := range cmp.PerCategoryChange {
		if change != 0 {
			t.Errorf("category %s change = %v, want 0", cat, change)
		}
	}
}

func TestCompareWindowsZeroBaseline(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	a := Summarize("100", day, day, []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 150000),
	})
	empty := Summarize("100", day.AddDays(-7), day.AddDays(-7), nil)

	cmp := CompareWindows(a, empty)
	if cmp.PercentChange != 0 {
		t.Errorf("zero baseline: PercentChange = %v, want 0", cmp.PercentChange)
	}
}

func TestTopCategories(t *testing.T) {
	day := core.NewDate(2025, 3, 15)
	s := Summarize("100", day, day, []core.LedgerEntry{
		testEntry("100", day, core.Expense, "MAKANAN", 50000),
		testEntry("100", day, core.Expense, "TRANSPORT", 90000),
		testEntry("100", day, core.Expense, "BELANJA", 50000),
		testEntry("100", day, core.Expense, "HIBURAN", 10000),
	})

	top := TopCategories(s, 3)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Name != "TRANSPORT" {
		t.Errorf("top[0] = %s, want TRANSPORT", top[0].Name)
	}
	// Tie on 50000 broken by name ascending.
	if top[1].Name != "BELANJA" || top[2].Name != "MAKANAN" {
		t.Errorf("tie order = %s, %s; want BELANJA, MAKANAN", top[1].Name, top[2].Name)
	}

	if got := TopCategories(s, -1); len(got) != 4 {
		t.Errorf("n=-1 should return all categories, got %d", len(got))
	}
	if got := TopCategories(s, 0); len(got) != 0 {
		t.Errorf("n=0 should return none, got %d", len(got))
	}
}

type failingSource struct{}

func (failingSource) QueryAll(context.Context) ([]core.LedgerEntry, error) {
	return nil, errors.New("feed gone")
}

func TestWindowSummaryWrapsStoreUnavailable(t *testing.T) {
	q := ledger.NewStore(failingSource{})
	_, err := DailySummary(context.Background(), q, core.NewDate(2025, 3, 15), "100")
	if !errors.Is(err, ledger.ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable in chain", err)
	}
}
