package ridemetrics

import (
	"time"
)

const rollingWeek = 7 * 24 * time.Hour

// InWindow reports whether a ride that ended at endedAt belongs to window w as seen at now.
// Calendar comparisons happen in now's location. Rides without an end time belong to no window.
func InWindow(endedAt *time.Time, w TimeWindow, now time.Time) bool {
	if endedAt == nil {
		return false
	}

	switch w {
	case WindowDaily:
		return sameDay(endedAt.In(now.Location()), now)
	case WindowWeekly:
		return endedAt.After(now.Add(-rollingWeek))
	case WindowMonthly:
		return endedAt.After(SubtractMonth(now))
	case WindowAll:
		return true
	default:
		return false
	}
}

// SubtractMonth moves t back one calendar month keeping the wall clock.
// The day is clamped to the last day of the target month, so Mar 31 becomes Feb 29 (or 28).
func SubtractMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month-1, 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfDay returns midnight of t's calendar day in t's location
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday midnight of t's ISO week
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
}

// startOfMonth returns midnight of the first day of t's month
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
