package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func event(code string, d time.Time, amount float64, cases int) DepositEvent {
	return DepositEvent{
		CustomerCode: code,
		Brand:        BrandFromTrusted("Alpha"),
		Day:          d,
		Amount:       decimal.NewFromFloat(amount),
		Cases:        cases,
	}
}

func testWindow(t *testing.T) DateWindow {
	t.Helper()
	window, err := ResolveWindow(mustMonth(t, "2024-02"), CycleAll)
	if err != nil {
		t.Fatalf("resolving window: %v", err)
	}
	return window
}

func TestBuildActivitySummary_SkipsZeroCaseEvents(t *testing.T) {
	window := testWindow(t)
	summary := BuildActivitySummary([]DepositEvent{
		event("A1", day(2024, 2, 5), 100, 0),
		event("A2", day(2024, 2, 5), 100, 1),
	}, window)

	if summary.ActiveCount() != 1 {
		t.Errorf("expected 1 active customer, got %d", summary.ActiveCount())
	}
	if summary.Activity("A1") != nil {
		t.Error("zero-case customer should not be active")
	}
}

func TestBuildActivitySummary_SkipsOutOfWindowEvents(t *testing.T) {
	window, _ := ResolveWindow(mustMonth(t, "2024-02"), Cycle2)
	summary := BuildActivitySummary([]DepositEvent{
		event("A1", day(2024, 2, 7), 100, 1),  // day before cycle 2
		event("A1", day(2024, 2, 8), 50, 1),   // first day of cycle 2
		event("A1", day(2024, 2, 15), 25, 1),  // day after cycle 2
	}, window)

	activity := summary.Activity("A1")
	if activity == nil {
		t.Fatal("expected A1 to be active")
	}
	if !activity.DepositSum.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected deposit sum 50, got %s", activity.DepositSum)
	}
	if activity.DistinctDays() != 1 {
		t.Errorf("expected 1 distinct day, got %d", activity.DistinctDays())
	}
}

func TestBuildActivitySummary_SameDayEventsCountOnce(t *testing.T) {
	window := testWindow(t)
	summary := BuildActivitySummary([]DepositEvent{
		event("A1", day(2024, 2, 5), 100, 1),
		event("A1", time.Date(2024, 2, 5, 18, 30, 0, 0, time.UTC), 200, 2),
		event("A1", day(2024, 2, 6), 50, 1),
	}, window)

	activity := summary.Activity("A1")
	if activity.DistinctDays() != 2 {
		t.Errorf("expected 2 distinct days, got %d", activity.DistinctDays())
	}
	// deposits still sum across same-day events
	if !activity.DepositSum.Equal(decimal.NewFromInt(350)) {
		t.Errorf("expected deposit sum 350, got %s", activity.DepositSum)
	}
}

func TestBuildActivitySummary_NormalizesCodes(t *testing.T) {
	window := testWindow(t)
	summary := BuildActivitySummary([]DepositEvent{
		event(" ABC123 ", day(2024, 2, 5), 100, 1),
		event("abc123", day(2024, 2, 6), 100, 1),
	}, window)

	if summary.ActiveCount() != 1 {
		t.Fatalf("expected 1 active customer after normalization, got %d", summary.ActiveCount())
	}

	activity := summary.Activity("ABC123")
	if activity == nil {
		t.Fatal("expected normalized lookup to succeed")
	}
	if activity.DistinctDays() != 2 {
		t.Errorf("expected 2 distinct days, got %d", activity.DistinctDays())
	}

	// lookup normalizes too
	if summary.Activity(" abc123 ") == nil {
		t.Error("expected raw-code lookup to normalize")
	}
}

func TestActivitySummary_DepositTotal(t *testing.T) {
	window := testWindow(t)
	summary := BuildActivitySummary([]DepositEvent{
		event("A1", day(2024, 2, 5), 100.50, 1),
		event("A2", day(2024, 2, 5), 200.25, 1),
	}, window)

	expected := decimal.NewFromFloat(300.75)
	if !summary.DepositTotal().Equal(expected) {
		t.Errorf("expected total %s, got %s", expected, summary.DepositTotal())
	}
}

func TestActivitySummary_Empty(t *testing.T) {
	summary := BuildActivitySummary(nil, testWindow(t))

	if summary.ActiveCount() != 0 {
		t.Errorf("expected 0 active customers, got %d", summary.ActiveCount())
	}
	if !summary.DepositTotal().Equal(decimal.Zero) {
		t.Errorf("expected zero total, got %s", summary.DepositTotal())
	}
	if len(summary.DistinctDayCounts()) != 0 {
		t.Error("expected empty day counts")
	}
}
