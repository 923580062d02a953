package domain

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TaggedScore is one operator's result labeled with its brand,
// ready for rollup.
type TaggedScore struct {
	Operator Operator
	Result   ScoreResult
}

// BrandScore is the per-brand rollup of operator results.
type BrandScore struct {
	Brand  Brand
	Result ScoreResult
}

// AggregateByBrand sums operator results field-wise per brand.
// purely additive, order of operators within a brand is irrelevant.
// brands appear in first-seen order so downstream sorts stay stable.
func AggregateByBrand(scores []TaggedScore) []BrandScore {
	index := make(map[string]int)
	var brands []BrandScore

	for _, tagged := range scores {
		key := tagged.Operator.Brand.String()
		i, ok := index[key]
		if !ok {
			i = len(brands)
			index[key] = i
			brands = append(brands, BrandScore{Brand: tagged.Operator.Brand, Result: ZeroScore()})
		}
		brands[i].Result = brands[i].Result.Add(tagged.Result)
	}

	return brands
}

// TopBrands returns the n highest-scoring brands, descending by total.
// the sort is stable: ties keep their original fetch order.
func TopBrands(brands []BrandScore, n int) []BrandScore {
	ranked := make([]BrandScore, len(brands))
	copy(ranked, brands)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Total > ranked[j].Result.Total
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Squad is a named group of brands scored against another squad.
type Squad struct {
	value string
}

var ErrSquadEmpty = errors.New("squad cannot be empty")

// NewSquad creates a Squad from a name.
func NewSquad(s string) (Squad, error) {
	if s == "" {
		return Squad{}, ErrSquadEmpty
	}
	return Squad{value: s}, nil
}

// SquadFromTrusted creates a Squad without validation.
func SquadFromTrusted(s string) Squad {
	return Squad{value: s}
}

// String returns the squad name.
func (s Squad) String() string {
	return s.value
}

// IsZero returns true if the Squad is not set.
func (s Squad) IsZero() bool {
	return s.value == ""
}

// OpponentEffect controls which squad a battle metric scores against.
type OpponentEffect string

const (
	// EffectIncrease adds points to the opposing squad.
	EffectIncrease OpponentEffect = "increase"
	// EffectDecrease subtracts points from the opposing squad.
	EffectDecrease OpponentEffect = "decrease"
	// EffectNone leaves the opposing squad untouched.
	EffectNone OpponentEffect = "none"
)

// Sign returns the multiplier applied to the opposing squad.
func (e OpponentEffect) Sign() float64 {
	switch e {
	case EffectIncrease:
		return 1
	case EffectDecrease:
		return -1
	default:
		return 0
	}
}

// BattleMetric configures one of the three battle scoring components.
type BattleMetric struct {
	Points float64
	Effect OpponentEffect
}

// BattleConfig holds the three metric configurations.
// ActiveMember credits the owning squad; Reactivation and Recommend
// apply their effect to the opposing squad.
type BattleConfig struct {
	ActiveMember BattleMetric
	Reactivation BattleMetric
	Recommend    BattleMetric
}

// DefaultBattleConfig returns the standing arena configuration.
func DefaultBattleConfig() BattleConfig {
	return BattleConfig{
		ActiveMember: BattleMetric{Points: 1, Effect: EffectNone},
		Reactivation: BattleMetric{Points: 3, Effect: EffectDecrease},
		Recommend:    BattleMetric{Points: 3, Effect: EffectDecrease},
	}
}

// AdjustmentEntry is one manually-entered per-squad, per-month score
// delta, sourced from the operator-editable adjustment log. never
// recomputed, only summed in after all computed components.
type AdjustmentEntry struct {
	ID        uuid.UUID
	Squad     Squad
	Month     Month
	Delta     float64
	Reason    string
	CreatedAt time.Time
}

// NewAdjustmentEntry creates an adjustment with a fresh ID.
func NewAdjustmentEntry(squad Squad, month Month, delta float64, reason string) (*AdjustmentEntry, error) {
	if squad.IsZero() {
		return nil, ErrSquadEmpty
	}
	if month.IsZero() {
		return nil, ErrInvalidMonth
	}
	return &AdjustmentEntry{
		ID:        uuid.New(),
		Squad:     squad,
		Month:     month,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SquadRepository defines access to the brand-squad mapping and the
// adjustment log.
type SquadRepository interface {
	// BrandMappings returns the many-to-one brand to squad mapping.
	// keys are brand names; brands absent from the map score for
	// neither squad.
	BrandMappings(ctx context.Context) (map[string]Squad, error)

	// ListAdjustments returns the manual adjustment entries for a month.
	ListAdjustments(ctx context.Context, month Month) ([]AdjustmentEntry, error)

	// SaveAdjustment appends an entry to the adjustment log.
	SaveAdjustment(ctx context.Context, entry *AdjustmentEntry) error
}
