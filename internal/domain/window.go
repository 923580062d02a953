package domain

import (
	"fmt"
	"time"
)

// Cycle selects a slice of the month for scoring.
// defined as enum to enforce valid values at compile time.
type Cycle string

const (
	CycleAll Cycle = "All"
	Cycle1   Cycle = "Cycle 1"
	Cycle2   Cycle = "Cycle 2"
	Cycle3   Cycle = "Cycle 3"
	Cycle4   Cycle = "Cycle 4"
)

// ParseCycle maps a selector string to a Cycle.
// unknown selectors fall back to the whole-month window rather than
// erroring; upstream UIs send free-form values here.
func ParseCycle(s string) Cycle {
	switch Cycle(s) {
	case Cycle1, Cycle2, Cycle3, Cycle4:
		return Cycle(s)
	default:
		return CycleAll
	}
}

// String returns the string representation of the Cycle.
func (c Cycle) String() string {
	return string(c)
}

// DateWindow is a closed calendar-day interval [Start, End].
// always derived from a month + cycle, never stored.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the given day falls inside the window.
// comparison is by calendar day, time-of-day is ignored.
func (w DateWindow) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Days returns the number of calendar days covered by the window.
func (w DateWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// String formats the window for logging.
func (w DateWindow) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// ResolveWindow maps (month, cycle) to a closed date interval.
// this is a pure function with no side effects.
//
// cycle boundaries are fixed regardless of month length:
// Cycle 1 = days 1-7, Cycle 2 = 8-14, Cycle 3 = 15-21,
// Cycle 4 = 22 through the last day of the month (28-31).
func ResolveWindow(month Month, cycle Cycle) (DateWindow, error) {
	if month.IsZero() {
		return DateWindow{}, ErrInvalidWindow
	}

	first := month.FirstDay()
	last := month.LastDay()

	switch cycle {
	case Cycle1:
		return DateWindow{Start: first, End: first.AddDate(0, 0, 6)}, nil
	case Cycle2:
		return DateWindow{Start: first.AddDate(0, 0, 7), End: first.AddDate(0, 0, 13)}, nil
	case Cycle3:
		return DateWindow{Start: first.AddDate(0, 0, 14), End: first.AddDate(0, 0, 20)}, nil
	case Cycle4:
		return DateWindow{Start: first.AddDate(0, 0, 21), End: last}, nil
	default:
		// includes CycleAll and anything ParseCycle let through
		return DateWindow{Start: first, End: last}, nil
	}
}
