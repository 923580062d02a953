package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyBuckets_Boundaries(t *testing.T) {
	buckets := ClassifyBuckets(map[string]int{
		"below":  3,
		"b47lo":  4,
		"b47hi":  7,
		"b811lo": 8,
		"b811hi": 11,
		"b1215":  12,
		"b1619":  19,
		"b20":    20,
		"b20big": 31,
	})

	if buckets.Days4to7 != 2 {
		t.Errorf("days 4-7 = %d, expected 2", buckets.Days4to7)
	}
	if buckets.Days8to11 != 2 {
		t.Errorf("days 8-11 = %d, expected 2", buckets.Days8to11)
	}
	if buckets.Days12to15 != 1 {
		t.Errorf("days 12-15 = %d, expected 1", buckets.Days12to15)
	}
	if buckets.Days16to19 != 1 {
		t.Errorf("days 16-19 = %d, expected 1", buckets.Days16to19)
	}
	if buckets.Days20Plus != 2 {
		t.Errorf("days 20+ = %d, expected 2", buckets.Days20Plus)
	}

	// customers below 4 days fall into no bucket
	if buckets.Total() != 8 {
		t.Errorf("bucket total = %d, expected 8", buckets.Total())
	}
}

func TestClassifyBuckets_EachCustomerInAtMostOneBucket(t *testing.T) {
	counts := map[string]int{}
	for i, days := 0, 1; days <= 31; i, days = i+1, days+1 {
		counts[DayKey(day(2024, 2, 1).AddDate(0, 0, i))] = days
	}

	buckets := ClassifyBuckets(counts)

	// 31 customers, 3 of them (1-3 days) unbucketed
	if buckets.Total() != 28 {
		t.Errorf("bucket total = %d, expected 28", buckets.Total())
	}
}

func TestCalculateScore_EndToEnd(t *testing.T) {
	// one operator: 100k deposits, one retention-active customer with
	// five distinct active days
	result := CalculateScore(ScoreInput{
		DepositTotal:    decimal.NewFromInt(100000),
		RetentionActive: 1,
		Buckets:         DayBuckets{Days4to7: 1},
		Weights: WeightVector{
			DepositAmount: 0.001,
			Retention:     5,
			Reactivation:  5,
			Recommend:     5,
			Days4to7:      5,
			Days8to11:     5,
			Days12to15:    5,
			Days16to19:    5,
			Days20Plus:    5,
		},
	})

	if result.Breakdown.Deposit != 100 {
		t.Errorf("deposit component = %f, expected 100", result.Breakdown.Deposit)
	}
	if result.Breakdown.Retention != 5 {
		t.Errorf("retention component = %f, expected 5", result.Breakdown.Retention)
	}
	if result.Breakdown.Days4to7 != 5 {
		t.Errorf("days 4-7 component = %f, expected 5", result.Breakdown.Days4to7)
	}
	if result.Total != 110 {
		t.Errorf("total = %f, expected 110", result.Total)
	}
	if result.BreakdownDrift != 0 {
		t.Errorf("expected no drift, got %f", result.BreakdownDrift)
	}
}

func TestCalculateScore_Deterministic(t *testing.T) {
	input := ScoreInput{
		DepositTotal:       decimal.NewFromFloat(54321.99),
		RetentionActive:    3,
		ReactivationActive: 2,
		RecommendActive:    1,
		Buckets:            DayBuckets{Days4to7: 2, Days12to15: 1, Days20Plus: 1},
		Weights:            DefaultWeightVector(),
	}

	first := CalculateScore(input)
	for i := 0; i < 10; i++ {
		if got := CalculateScore(input); got != first {
			t.Fatalf("run %d produced a different result", i)
		}
	}
}

func TestCalculateScore_ZeroInputs(t *testing.T) {
	result := CalculateScore(ScoreInput{
		DepositTotal: decimal.Zero,
		Weights:      DefaultWeightVector(),
	})

	if result.Total != 0 {
		t.Errorf("expected zero total, got %f", result.Total)
	}
}

func TestCalculateScore_TotalRoundsUnroundedSum(t *testing.T) {
	// two terms of 0.4 each: per-term rounding gives 0+0, the true sum
	// rounds to 1
	result := CalculateScore(ScoreInput{
		DepositTotal:       decimal.Zero,
		RetentionActive:    1,
		ReactivationActive: 1,
		Weights:            WeightVector{Retention: 0.4, Reactivation: 0.4},
	})

	if result.Total != 1 {
		t.Errorf("total = %f, expected 1 (rounded over unrounded sum)", result.Total)
	}
	if result.Breakdown.Retention != 0 || result.Breakdown.Activation != 0 {
		t.Errorf("breakdown fields should round per-term to 0, got %f and %f",
			result.Breakdown.Retention, result.Breakdown.Activation)
	}
	if result.BreakdownDrift != 1 {
		t.Errorf("expected drift of 1, got %f", result.BreakdownDrift)
	}
}

func TestScoreResult_Add(t *testing.T) {
	a := CalculateScore(ScoreInput{
		DepositTotal:    decimal.NewFromInt(100000),
		RetentionActive: 1,
		Weights:         DefaultWeightVector(),
	})
	b := CalculateScore(ScoreInput{
		DepositTotal: decimal.NewFromInt(200000),
		Buckets:      DayBuckets{Days8to11: 1},
		Weights:      DefaultWeightVector(),
	})

	sum := a.Add(b)

	if sum.Total != a.Total+b.Total {
		t.Errorf("total = %f, expected %f", sum.Total, a.Total+b.Total)
	}
	if !sum.RawCounts.DepositTotal.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("deposit total = %s, expected 300000", sum.RawCounts.DepositTotal)
	}
	if sum.RawCounts.Buckets.Days8to11 != 1 {
		t.Errorf("buckets should add field-wise")
	}
}

func TestDefaultWeightVector_AllNonZero(t *testing.T) {
	w := DefaultWeightVector()
	for name, v := range map[string]float64{
		"deposit":      w.DepositAmount,
		"retention":    w.Retention,
		"reactivation": w.Reactivation,
		"recommend":    w.Recommend,
		"days_4_7":     w.Days4to7,
		"days_8_11":    w.Days8to11,
		"days_12_15":   w.Days12to15,
		"days_16_19":   w.Days16to19,
		"days_20_more": w.Days20Plus,
	} {
		if v == 0 {
			t.Errorf("default weight %s is zero", name)
		}
	}
}
