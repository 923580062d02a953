package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DepositEvent is a single row of the external activity feed:
// one customer, one brand, one calendar day. append-only upstream.
type DepositEvent struct {
	CustomerCode string
	Brand        Brand
	Day          time.Time
	Amount       decimal.Decimal
	Cases        int
}

// Qualifying reports whether the event counts toward activity.
// only deposits with at least one case qualify.
func (e DepositEvent) Qualifying() bool {
	return e.Cases > 0
}

// CustomerActivity accumulates one customer's deposits inside a window.
// deposit amounts are decimal so repeated large deposits never lose
// precision; active days are a set so same-day events count once.
type CustomerActivity struct {
	DepositSum decimal.Decimal
	activeDays map[string]bool
}

// DistinctDays returns the number of distinct calendar days with at
// least one qualifying event.
func (a *CustomerActivity) DistinctDays() int {
	return len(a.activeDays)
}

// ActivitySummary maps normalized customer codes to their accumulated
// in-window activity. codes with zero qualifying rows are absent.
// built fresh per computation (or sliced from a cached month); never
// persisted.
type ActivitySummary struct {
	byCode map[string]*CustomerActivity
}

// BuildActivitySummary folds qualifying in-window events into per-code
// deposit sums and distinct-day sets. this is a pure function: events
// outside the window or with zero cases are skipped, everything else is
// accumulated under the normalized code.
func BuildActivitySummary(events []DepositEvent, window DateWindow) *ActivitySummary {
	summary := &ActivitySummary{byCode: make(map[string]*CustomerActivity)}

	for _, event := range events {
		if !event.Qualifying() || !window.Contains(event.Day) {
			continue
		}

		code := NormalizeCode(event.CustomerCode)
		if code == "" {
			continue
		}

		activity, ok := summary.byCode[code]
		if !ok {
			activity = &CustomerActivity{
				DepositSum: decimal.Zero,
				activeDays: make(map[string]bool),
			}
			summary.byCode[code] = activity
		}

		// sum, not max: repeated deposits on different days add up
		activity.DepositSum = activity.DepositSum.Add(event.Amount)
		activity.activeDays[DayKey(event.Day)] = true
	}

	return summary
}

// ActiveSet returns the normalized codes with at least one qualifying
// in-window event. membership here drives the per-category counts.
func (s *ActivitySummary) ActiveSet() map[string]bool {
	active := make(map[string]bool, len(s.byCode))
	for code := range s.byCode {
		active[code] = true
	}
	return active
}

// ActiveCount returns the number of active customers.
func (s *ActivitySummary) ActiveCount() int {
	return len(s.byCode)
}

// Activity returns the accumulated activity for a code, or nil.
func (s *ActivitySummary) Activity(code string) *CustomerActivity {
	return s.byCode[NormalizeCode(code)]
}

// DepositTotal sums every active customer's deposits. each customer
// contributes once no matter how many categories list them.
func (s *ActivitySummary) DepositTotal() decimal.Decimal {
	total := decimal.Zero
	for _, activity := range s.byCode {
		total = total.Add(activity.DepositSum)
	}
	return total
}

// DistinctDayCounts returns distinct-active-day counts per code.
// input to the bucket classifier.
func (s *ActivitySummary) DistinctDayCounts() map[string]int {
	counts := make(map[string]int, len(s.byCode))
	for code, activity := range s.byCode {
		counts[code] = activity.DistinctDays()
	}
	return counts
}

// DepositEventRepository defines read access to the activity feed.
// bulk fetching is a hard requirement: per-code queries do not scale
// past a few dozen assigned customers.
type DepositEventRepository interface {
	// FindQualifying retrieves qualifying events for the given normalized
	// codes, brand and window in one query.
	FindQualifying(ctx context.Context, codes []string, brand Brand, window DateWindow) ([]DepositEvent, error)

	// FindQualifyingByMonth retrieves every qualifying event of a month
	// across all brands. feeds the monthly snapshot; callers slice the
	// result to their window afterwards.
	FindQualifyingByMonth(ctx context.Context, month Month) ([]DepositEvent, error)

	// FindQualifyingByBrands retrieves qualifying events for a set of
	// brands inside a window. used by battle scoring.
	FindQualifyingByBrands(ctx context.Context, brands []Brand, window DateWindow) ([]DepositEvent, error)
}
