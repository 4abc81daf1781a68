// Package report computes time-windowed aggregates over the ledger and
// renders them for delivery. Every call recomputes from scratch over the
// filtered entry set; no windowing state is kept between calls.
package report

import (
	"context"
	"fmt"
	"sort"

	"duit/internal/core"
	"duit/internal/ledger"

	"github.com/shopspring/decimal"
)

// Comparison is the result of comparing two windows' expense totals.
type Comparison struct {
	// PercentChange is (A-B)/B*100, saturating to 0 when B is zero.
	PercentChange float64
	// PerCategoryChange applies the same formula per category of the
	// current window.
	PerCategoryChange map[string]float64
}

// DailySummary aggregates one calendar date. An empty ownerID covers the
// whole household.
func DailySummary(ctx context.Context, q ledger.Querier, date core.Date, ownerID string) (core.WindowSummary, error) {
	return windowSummary(ctx, q, date, date, ownerID)
}

// WeeklySummary aggregates the 7-day window ending at (and including) end.
func WeeklySummary(ctx context.Context, q ledger.Querier, end core.Date, ownerID string) (core.WindowSummary, error) {
	return windowSummary(ctx, q, end.AddDays(-6), end, ownerID)
}

// MonthlySummary aggregates the first through last calendar day of the month.
// Month is 1-12.
func MonthlySummary(ctx context.Context, q ledger.Querier, month, year int, ownerID string) (core.WindowSummary, error) {
	if month < 1 || month > 12 {
		return core.WindowSummary{}, fmt.Errorf("invalid month: %d", month)
	}
	from := core.NewDate(year, month, 1)
	to := core.Date{Time: from.AddDate(0, 1, -1)}
	return windowSummary(ctx, q, from, to, ownerID)
}

func windowSummary(ctx context.Context, q ledger.Querier, from, to core.Date, ownerID string) (core.WindowSummary, error) {
	entries, err := q.FetchEntries(ctx, ledger.Filter{
		OwnerID:  ownerID,
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		return core.WindowSummary{}, fmt.Errorf("fetch entries: %w", err)
	}
	return Summarize(ownerID, from, to, entries), nil
}

// Summarize folds an entry set into a WindowSummary in one linear pass.
// An empty set yields a zero summary, never an error. Unknown categories are
// kept under their literal string.
func Summarize(ownerID string, from, to core.Date, entries []core.LedgerEntry) core.WindowSummary {
	s := core.WindowSummary{
		OwnerID:    ownerID,
		From:       from,
		To:         to,
		ByCategory: map[string]decimal.Decimal{},
	}
	for _, e := range entries {
		s.EntryCount++
		switch e.Kind {
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(e.Amount)
			s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(e.Amount)
		}
		s.Entries = append(s.Entries, e)
	}

	// Presentation contract: contributing entries by amount descending,
	// ties broken by recording timestamp so repeated runs are identical.
	sort.SliceStable(s.Entries, func(i, j int) bool {
		cmp := s.Entries[i].Amount.Cmp(s.Entries[j].Amount)
		if cmp != 0 {
			return cmp > 0
		}
		return s.Entries[i].Timestamp.Before(s.Entries[j].Timestamp)
	})
	return s
}

// CompareWindows compares a current window A against a baseline B. A zero
// baseline saturates to 0 rather than erroring; "infinitely more" is not a
// useful number in a report.
func CompareWindows(a, b core.WindowSummary) Comparison {
	c := Comparison{
		PercentChange:     percentChange(a.TotalExpense.InexactFloat64(), b.TotalExpense.InexactFloat64()),
		PerCategoryChange: make(map[string]float64, len(a.ByCategory)),
	}
	for cat, cur := range a.ByCategory {
		prev := b.ByCategory[cat]
		c.PerCategoryChange[cat] = percentChange(cur.InexactFloat64(), prev.InexactFloat64())
	}
	return c
}

func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// TopCategories returns up to n categories ordered by total descending, ties
// broken by name ascending so output is deterministic.
func TopCategories(s core.WindowSummary, n int) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(s.ByCategory))
	for name, total := range s.ByCategory {
		out = append(out, core.CategoryAmount{Name: name, Amount: total})
	}
	sort.Slice(out, func(i, j int) bool {
		cmp := out[i].Amount.Cmp(out[j].Amount)
		if cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
