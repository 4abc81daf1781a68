package core

import "github.com/shopspring/decimal"

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// WindowSummary is the output of aggregating one (owner, from, to) window.
// An empty OwnerID means the whole household.
type WindowSummary struct {
	OwnerID      string
	From         Date
	To           Date
	TotalExpense decimal.Decimal
	TotalIncome  decimal.Decimal
	EntryCount   int
	// ByCategory partitions TotalExpense: only expense entries contribute.
	ByCategory map[string]decimal.Decimal
	// Entries are the contributing entries ordered by amount descending.
	// Consumers format them in that order; the ordering is part of the
	// engine's contract.
	Entries []LedgerEntry
}

// Balance is totalIncome - totalExpense, exactly.
func (s WindowSummary) Balance() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}

// Empty reports whether no entries fell inside the window.
func (s WindowSummary) Empty() bool {
	return s.EntryCount == 0
}
