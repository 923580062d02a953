package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Handler identifies the operator shift that owns an assignment list.
// wrapping string to enforce type safety and prevent mixing with brands.
type Handler struct {
	value string
}

var ErrHandlerEmpty = errors.New("handler cannot be empty")

// NewHandler creates a Handler, trimming surrounding whitespace.
// upstream data entry is inconsistent, so trimming happens once here.
func NewHandler(s string) (Handler, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Handler{}, ErrHandlerEmpty
	}
	return Handler{value: trimmed}, nil
}

// HandlerFromTrusted creates a Handler without validation.
// only use this when loading from database where data is already validated.
func HandlerFromTrusted(s string) Handler {
	return Handler{value: s}
}

// String returns the string representation of the Handler.
func (h Handler) String() string {
	return h.value
}

// IsZero returns true if the Handler is not set.
func (h Handler) IsZero() bool {
	return h.value == ""
}

// Brand identifies a product line. Operators are scored per brand and
// brands roll up into squads for battle scoring.
type Brand struct {
	value string
}

var ErrBrandEmpty = errors.New("brand cannot be empty")

// NewBrand creates a Brand, trimming surrounding whitespace.
func NewBrand(s string) (Brand, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Brand{}, ErrBrandEmpty
	}
	return Brand{value: trimmed}, nil
}

// BrandFromTrusted creates a Brand without validation.
func BrandFromTrusted(s string) Brand {
	return Brand{value: s}
}

// String returns the string representation of the Brand.
func (b Brand) String() string {
	return b.value
}

// IsZero returns true if the Brand is not set.
func (b Brand) IsZero() bool {
	return b.value == ""
}

// NormalizeCode canonicalizes a customer code for cross-source matching.
// assignment lists and deposit feeds disagree on case and whitespace, so
// every join between them goes through this normalization.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Month is a calendar month in "YYYY-MM" form.
// all scoring windows are derived from a month plus a cycle selector.
type Month struct {
	year  int
	month time.Month
}

var ErrInvalidMonth = errors.New("month must be in YYYY-MM format")

// ParseMonth parses a "YYYY-MM" string into a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{year: t.Year(), month: t.Month()}, nil
}

// MonthOf creates a Month from a point in time.
func MonthOf(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// String returns the "YYYY-MM" representation.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// FirstDay returns midnight UTC on the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC on the last day of the month,
// accounting for month length (28-31 days).
func (m Month) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// IsZero returns true if the Month is not set.
func (m Month) IsZero() bool {
	return m.year == 0
}

// DayKey formats a timestamp as a calendar-day key for distinct-day sets.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
