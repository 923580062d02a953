package domain

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// WeightVector is the per-month scoring configuration.
// externally maintained, one row per month; immutable for the duration
// of a computation.
type WeightVector struct {
	DepositAmount float64
	Retention     float64
	Reactivation  float64
	Recommend     float64
	Days4to7      float64
	Days8to11     float64
	Days12to15    float64
	Days16to19    float64
	Days20Plus    float64
}

// DefaultWeightVector returns the weights applied when no row exists
// for a month. every weight is non-zero so a score is always computable.
func DefaultWeightVector() WeightVector {
	return WeightVector{
		DepositAmount: 0.001,
		Retention:     5,
		Reactivation:  5,
		Recommend:     5,
		Days4to7:      5,
		Days8to11:     5,
		Days12to15:    5,
		Days16to19:    5,
		Days20Plus:    5,
	}
}

// WeightRepository fetches the weight vector for a month.
// returns ErrNotFound when no row exists; callers fall back to defaults.
type WeightRepository interface {
	FindByMonth(ctx context.Context, month Month) (WeightVector, error)
}

// DayBuckets counts active customers by distinct-active-day range.
// buckets are disjoint; customers with 1-3 distinct days fall into none.
type DayBuckets struct {
	Days4to7   int
	Days8to11  int
	Days12to15 int
	Days16to19 int
	Days20Plus int
}

// Total returns the number of bucketed customers. by construction this
// equals the count of active customers with >= 4 distinct days.
func (b DayBuckets) Total() int {
	return b.Days4to7 + b.Days8to11 + b.Days12to15 + b.Days16to19 + b.Days20Plus
}

// ClassifyBuckets places each active customer into exactly one bucket
// (or none) by distinct-active-day count. boundaries are inclusive:
// 4-7, 8-11, 12-15, 16-19, 20+.
func ClassifyBuckets(distinctDays map[string]int) DayBuckets {
	var buckets DayBuckets
	for _, days := range distinctDays {
		switch {
		case days >= 20:
			buckets.Days20Plus++
		case days >= 16:
			buckets.Days16to19++
		case days >= 12:
			buckets.Days12to15++
		case days >= 8:
			buckets.Days8to11++
		case days >= 4:
			buckets.Days4to7++
		}
	}
	return buckets
}

// ScoreInput carries everything CalculateScore needs.
// all data is provided upfront - no side effects or fetching inside.
type ScoreInput struct {
	// DepositTotal is the summed in-window deposit amount across the
	// operator's active customers, deduplicated across categories.
	DepositTotal decimal.Decimal

	// RetentionActive/ReactivationActive/RecommendActive are the counts
	// of each category's assigned codes that are also in the active set.
	RetentionActive    int
	ReactivationActive int
	RecommendActive    int

	// Buckets are the distinct-day buckets over the active set.
	Buckets DayBuckets

	// Weights is the month's weight vector.
	Weights WeightVector
}

// ScoreBreakdown is the per-component score, each field rounded for
// display. the sum of rounded fields can drift from Total; see
// ScoreResult.BreakdownDrift.
type ScoreBreakdown struct {
	Deposit    float64
	Retention  float64
	Activation float64
	Referral   float64
	Days4to7   float64
	Days8to11  float64
	Days12to15 float64
	Days16to19 float64
	Days20Plus float64
}

// ScoreCounts echoes the raw inputs so callers can render "how" a score
// came to be without refetching.
type ScoreCounts struct {
	DepositTotal       decimal.Decimal
	RetentionActive    int
	ReactivationActive int
	RecommendActive    int
	Buckets            DayBuckets
}

// ScoreResult is the engine's output for one operator and window.
type ScoreResult struct {
	// Total is round(sum of unrounded component terms). authoritative.
	Total float64

	Breakdown ScoreBreakdown
	RawCounts ScoreCounts

	// BreakdownDrift is Total minus the sum of the individually rounded
	// breakdown fields. non-zero drift is expected under per-term
	// rounding; callers log it rather than reconciling.
	BreakdownDrift float64
}

// CalculateScore applies the weight vector to the aggregated counts.
// this is a pure function: fixed inputs always produce identical output,
// and missing inputs are treated as zero.
//
// the total is rounded once over the unrounded sum; breakdown fields are
// rounded per-term for display only.
func CalculateScore(input ScoreInput) ScoreResult {
	w := input.Weights

	deposit := input.DepositTotal.InexactFloat64() * w.DepositAmount
	retention := float64(input.RetentionActive) * w.Retention
	activation := float64(input.ReactivationActive) * w.Reactivation
	referral := float64(input.RecommendActive) * w.Recommend
	days4to7 := float64(input.Buckets.Days4to7) * w.Days4to7
	days8to11 := float64(input.Buckets.Days8to11) * w.Days8to11
	days12to15 := float64(input.Buckets.Days12to15) * w.Days12to15
	days16to19 := float64(input.Buckets.Days16to19) * w.Days16to19
	days20plus := float64(input.Buckets.Days20Plus) * w.Days20Plus

	total := math.Round(deposit + retention + activation + referral +
		days4to7 + days8to11 + days12to15 + days16to19 + days20plus)

	breakdown := ScoreBreakdown{
		Deposit:    math.Round(deposit),
		Retention:  math.Round(retention),
		Activation: math.Round(activation),
		Referral:   math.Round(referral),
		Days4to7:   math.Round(days4to7),
		Days8to11:  math.Round(days8to11),
		Days12to15: math.Round(days12to15),
		Days16to19: math.Round(days16to19),
		Days20Plus: math.Round(days20plus),
	}

	breakdownSum := breakdown.Deposit + breakdown.Retention + breakdown.Activation +
		breakdown.Referral + breakdown.Days4to7 + breakdown.Days8to11 +
		breakdown.Days12to15 + breakdown.Days16to19 + breakdown.Days20Plus

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
		RawCounts: ScoreCounts{
			DepositTotal:       input.DepositTotal,
			RetentionActive:    input.RetentionActive,
			ReactivationActive: input.ReactivationActive,
			RecommendActive:    input.RecommendActive,
			Buckets:            input.Buckets,
		},
		BreakdownDrift: total - breakdownSum,
	}
}

// Add returns the field-wise sum of two results. rollups are purely
// additive; weights are never re-applied.
func (r ScoreResult) Add(other ScoreResult) ScoreResult {
	return ScoreResult{
		Total: r.Total + other.Total,
		Breakdown: ScoreBreakdown{
			Deposit:    r.Breakdown.Deposit + other.Breakdown.Deposit,
			Retention:  r.Breakdown.Retention + other.Breakdown.Retention,
			Activation: r.Breakdown.Activation + other.Breakdown.Activation,
			Referral:   r.Breakdown.Referral + other.Breakdown.Referral,
			Days4to7:   r.Breakdown.Days4to7 + other.Breakdown.Days4to7,
			Days8to11:  r.Breakdown.Days8to11 + other.Breakdown.Days8to11,
			Days12to15: r.Breakdown.Days12to15 + other.Breakdown.Days12to15,
			Days16to19: r.Breakdown.Days16to19 + other.Breakdown.Days16to19,
			Days20Plus: r.Breakdown.Days20Plus + other.Breakdown.Days20Plus,
		},
		RawCounts: ScoreCounts{
			DepositTotal:       r.RawCounts.DepositTotal.Add(other.RawCounts.DepositTotal),
			RetentionActive:    r.RawCounts.RetentionActive + other.RawCounts.RetentionActive,
			ReactivationActive: r.RawCounts.ReactivationActive + other.RawCounts.ReactivationActive,
			RecommendActive:    r.RawCounts.RecommendActive + other.RawCounts.RecommendActive,
			Buckets: DayBuckets{
				Days4to7:   r.RawCounts.Buckets.Days4to7 + other.RawCounts.Buckets.Days4to7,
				Days8to11:  r.RawCounts.Buckets.Days8to11 + other.RawCounts.Buckets.Days8to11,
				Days12to15: r.RawCounts.Buckets.Days12to15 + other.RawCounts.Buckets.Days12to15,
				Days16to19: r.RawCounts.Buckets.Days16to19 + other.RawCounts.Buckets.Days16to19,
				Days20Plus: r.RawCounts.Buckets.Days20Plus + other.RawCounts.Buckets.Days20Plus,
			},
		},
	}
}

// ZeroScore returns a zero-filled result. a computation whose sources
// all failed still returns this rather than erroring.
func ZeroScore() ScoreResult {
	return ScoreResult{RawCounts: ScoreCounts{DepositTotal: decimal.Zero}}
}
