package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense EntryKind = "expense"
	Income  EntryKind = "income"
)

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type (
	EntryKind string

	Role string

	// Date is a calendar day. The wall-clock portion is always midnight UTC so
	// that two dates compare equal regardless of where they were produced.
	Date struct {
		time.Time
	}

	// LedgerEntry is one recorded transaction. Entries are immutable once
	// persisted; corrections are made by appending offsetting entries.
	LedgerEntry struct {
		// Timestamp is the instant of recording and the authoritative
		// ordering key.
		Timestamp time.Time
		// OccurredOn is the calendar date attributed to the transaction.
		// Window membership is decided on this field, never on Timestamp.
		OccurredOn  Date
		Kind        EntryKind
		Category    string
		Amount      decimal.Decimal
		Description string
		OwnerID     string
		// OwnerName is the member's display name at recording time. It is
		// deliberately never re-resolved: historical entries keep the name
		// as it was.
		OwnerName string
	}

	// Member is a registered household participant.
	Member struct {
		ID          string
		DisplayName string
		Role        Role
		JoinedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidKind     = errors.New("invalid entry kind")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyOwner      = errors.New("empty owner id")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day in the instant's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (k EntryKind) Valid() bool {
	return k == Expense || k == Income
}

func (e LedgerEntry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := e.OccurredOn.Validate(); err != nil {
		return err
	}
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if len(e.Description) > 200 {
		return ErrDescriptionSize
	}
	return nil
}
