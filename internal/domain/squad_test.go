package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func taggedScore(handler, brand string, total float64) TaggedScore {
	return TaggedScore{
		Operator: Operator{
			Handler: HandlerFromTrusted(handler),
			Brand:   BrandFromTrusted(brand),
		},
		Result: ScoreResult{
			Total:     total,
			RawCounts: ScoreCounts{DepositTotal: decimal.Zero},
		},
	}
}

func TestAggregateByBrand_SumsOperatorTotals(t *testing.T) {
	brands := AggregateByBrand([]TaggedScore{
		taggedScore("Night-A", "Alpha", 500),
		taggedScore("Day-B", "Alpha", 300),
		taggedScore("Night-C", "Beta", 200),
	})

	if len(brands) != 2 {
		t.Fatalf("expected 2 brands, got %d", len(brands))
	}

	byName := make(map[string]float64)
	for _, b := range brands {
		byName[b.Brand.String()] = b.Result.Total
	}

	if byName["Alpha"] != 800 {
		t.Errorf("Alpha total = %f, expected 800", byName["Alpha"])
	}
	if byName["Beta"] != 200 {
		t.Errorf("Beta total = %f, expected 200", byName["Beta"])
	}
}

func TestAggregateByBrand_FirstSeenOrder(t *testing.T) {
	brands := AggregateByBrand([]TaggedScore{
		taggedScore("h1", "Gamma", 1),
		taggedScore("h2", "Alpha", 1),
		taggedScore("h3", "Gamma", 1),
		taggedScore("h4", "Beta", 1),
	})

	expected := []string{"Gamma", "Alpha", "Beta"}
	for i, name := range expected {
		if brands[i].Brand.String() != name {
			t.Errorf("position %d = %s, expected %s", i, brands[i].Brand.String(), name)
		}
	}
}

func TestTopBrands_Podium(t *testing.T) {
	brands := AggregateByBrand([]TaggedScore{
		taggedScore("h1", "Alpha", 300),
		taggedScore("h2", "Beta", 500),
		taggedScore("h3", "Gamma", 100),
		taggedScore("h4", "Delta", 400),
	})

	podium := TopBrands(brands, 3)

	if len(podium) != 3 {
		t.Fatalf("expected 3 podium entries, got %d", len(podium))
	}
	if podium[0].Brand.String() != "Beta" || podium[1].Brand.String() != "Delta" || podium[2].Brand.String() != "Alpha" {
		t.Errorf("unexpected podium order: %s, %s, %s",
			podium[0].Brand.String(), podium[1].Brand.String(), podium[2].Brand.String())
	}
}

func TestTopBrands_TiesKeepFetchOrder(t *testing.T) {
	brands := AggregateByBrand([]TaggedScore{
		taggedScore("h1", "Alpha", 100),
		taggedScore("h2", "Beta", 100),
		taggedScore("h3", "Gamma", 100),
	})

	podium := TopBrands(brands, 3)

	expected := []string{"Alpha", "Beta", "Gamma"}
	for i, name := range expected {
		if podium[i].Brand.String() != name {
			t.Errorf("position %d = %s, expected %s (stable tie order)", i, podium[i].Brand.String(), name)
		}
	}
}

func TestTopBrands_FewerThanRequested(t *testing.T) {
	brands := AggregateByBrand([]TaggedScore{
		taggedScore("h1", "Alpha", 100),
	})

	podium := TopBrands(brands, 3)
	if len(podium) != 1 {
		t.Errorf("expected 1 entry, got %d", len(podium))
	}
}

func TestTopBrands_DoesNotMutateInput(t *testing.T) {
	brands := []BrandScore{
		{Brand: BrandFromTrusted("Alpha"), Result: ScoreResult{Total: 1}},
		{Brand: BrandFromTrusted("Beta"), Result: ScoreResult{Total: 2}},
	}

	TopBrands(brands, 2)

	if brands[0].Brand.String() != "Alpha" {
		t.Error("input slice was reordered")
	}
}

func TestOpponentEffect_Sign(t *testing.T) {
	tests := []struct {
		effect   OpponentEffect
		expected float64
	}{
		{EffectIncrease, 1},
		{EffectDecrease, -1},
		{EffectNone, 0},
		{OpponentEffect("bogus"), 0},
	}

	for _, tt := range tests {
		if got := tt.effect.Sign(); got != tt.expected {
			t.Errorf("Sign(%q) = %f, expected %f", tt.effect, got, tt.expected)
		}
	}
}

func TestNewAdjustmentEntry_Validation(t *testing.T) {
	month := mustMonth(t, "2024-02")
	squad := SquadFromTrusted("Red")

	entry, err := NewAdjustmentEntry(squad, month, -25, "penalty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Delta != -25 {
		t.Errorf("delta = %f, expected -25", entry.Delta)
	}

	if _, err := NewAdjustmentEntry(Squad{}, month, 1, ""); err == nil {
		t.Error("expected error for empty squad")
	}
	if _, err := NewAdjustmentEntry(squad, Month{}, 1, ""); err == nil {
		t.Error("expected error for zero month")
	}
}
