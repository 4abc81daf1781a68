package core

import "fmt"

const (
	NotifyDaily   NotificationKind = "daily"
	NotifyWeekly  NotificationKind = "weekly"
	NotifyMonthly NotificationKind = "monthly"
)

type (
	// NotificationKind is one independently scheduled notification cadence.
	NotificationKind string

	// Preferences holds a member's opt-in flags, one per notification kind.
	// The default is opt-out: every kind starts enabled.
	Preferences struct {
		Daily   bool
		Weekly  bool
		Monthly bool
	}

	// PreferencePatch is a partial update. Nil fields leave the current
	// value untouched (merge semantics, not replace).
	PreferencePatch struct {
		Daily   *bool
		Weekly  *bool
		Monthly *bool
	}
)

// NotificationKinds lists all cadences in schedule order.
func NotificationKinds() []NotificationKind {
	return []NotificationKind{NotifyDaily, NotifyWeekly, NotifyMonthly}
}

func (k NotificationKind) Valid() bool {
	switch k {
	case NotifyDaily, NotifyWeekly, NotifyMonthly:
		return true
	}
	return false
}

// DefaultPreferences returns the all-enabled default applied on first access.
func DefaultPreferences() Preferences {
	return Preferences{Daily: true, Weekly: true, Monthly: true}
}

// Enabled reports whether the given kind is switched on.
func (p Preferences) Enabled(kind NotificationKind) (bool, error) {
	switch kind {
	case NotifyDaily:
		return p.Daily, nil
	case NotifyWeekly:
		return p.Weekly, nil
	case NotifyMonthly:
		return p.Monthly, nil
	}
	return false, fmt.Errorf("unknown notification kind: %s", kind)
}

// Apply merges a patch into the preferences, overwriting only the named kinds.
func (p Preferences) Apply(patch PreferencePatch) Preferences {
	if patch.Daily != nil {
		p.Daily = *patch.Daily
	}
	if patch.Weekly != nil {
		p.Weekly = *patch.Weekly
	}
	if patch.Monthly != nil {
		p.Monthly = *patch.Monthly
	}
	return p
}
