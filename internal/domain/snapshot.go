package domain

import "time"

// MonthlySnapshot is the month-wide join input shared across many
// per-operator computations in one leaderboard pass: every assignment
// record and every qualifying deposit event for the month. window
// filtering happens after retrieval, when the consumer slices the
// events to its own DateWindow.
type MonthlySnapshot struct {
	Month       Month
	Assignments []AssignmentRecord
	Events      []DepositEvent
	FetchedAt   time.Time
}

// AssignmentsFor filters the snapshot to one operator's records,
// grouped by category. the (handler, brand) match is exact, mirroring
// the store-level filter of the direct fetch path.
func (s *MonthlySnapshot) AssignmentsFor(handler Handler, brand Brand) map[Category][]AssignmentRecord {
	byCategory := make(map[Category][]AssignmentRecord, len(Categories))
	for _, record := range s.Assignments {
		if record.Handler == handler && record.Brand == brand {
			byCategory[record.Category] = append(byCategory[record.Category], record)
		}
	}
	return byCategory
}

// EventsFor filters the snapshot's events to one brand and code set.
// codes must be normalized. window slicing is left to the caller.
func (s *MonthlySnapshot) EventsFor(brand Brand, codes []string) []DepositEvent {
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}

	var events []DepositEvent
	for _, event := range s.Events {
		if event.Brand == brand && wanted[NormalizeCode(event.CustomerCode)] {
			events = append(events, event)
		}
	}
	return events
}
