package domain

// BattleInput carries pre-aggregated counts for the squad-vs-squad
// computation. all data is provided upfront; the function is pure.
// count maps are keyed by squad name.
type BattleInput struct {
	SquadA Squad
	SquadB Squad
	Config BattleConfig

	// ActiveMemberCounts is the number of qualifying deposit events
	// per squad inside the window.
	ActiveMemberCounts map[string]int

	// ReactivationHits / RecommendHits count deduplicated (code, brand)
	// assignment records with at least one qualifying in-window activity
	// date, per owning squad.
	ReactivationHits map[string]int
	RecommendHits    map[string]int

	// Adjustments are the month's manual delta entries.
	Adjustments []AdjustmentEntry
}

// BattleComponentScores breaks a squad's total into its components.
type BattleComponentScores struct {
	ActiveMember float64
	Reactivation float64
	Recommend    float64
	Adjustment   float64
}

// BattleSide is one squad's final battle score.
type BattleSide struct {
	Squad     Squad
	Total     float64
	Breakdown BattleComponentScores
}

// BattleResult is the outcome of a squad-vs-squad computation.
type BattleResult struct {
	SquadA BattleSide
	SquadB BattleSide
}

// ComputeBattleScore applies the battle metric configuration:
//
//   - ActiveMember contributes count * points to the owning squad.
//   - Reactivation and Recommend apply sign(effect) * points per hit to
//     the opposing squad - one squad's reactivation success deducts from
//     the other when the effect is "decrease".
//   - manual adjustments are summed into their own squad last, never
//     recomputed.
func ComputeBattleScore(input BattleInput) BattleResult {
	a := BattleSide{Squad: input.SquadA}
	b := BattleSide{Squad: input.SquadB}

	nameA := input.SquadA.String()
	nameB := input.SquadB.String()

	a.Breakdown.ActiveMember = float64(input.ActiveMemberCounts[nameA]) * input.Config.ActiveMember.Points
	b.Breakdown.ActiveMember = float64(input.ActiveMemberCounts[nameB]) * input.Config.ActiveMember.Points

	// opponent-effect metrics score against the other squad
	reactSign := input.Config.Reactivation.Effect.Sign() * input.Config.Reactivation.Points
	b.Breakdown.Reactivation = float64(input.ReactivationHits[nameA]) * reactSign
	a.Breakdown.Reactivation = float64(input.ReactivationHits[nameB]) * reactSign

	recSign := input.Config.Recommend.Effect.Sign() * input.Config.Recommend.Points
	b.Breakdown.Recommend = float64(input.RecommendHits[nameA]) * recSign
	a.Breakdown.Recommend = float64(input.RecommendHits[nameB]) * recSign

	for _, adj := range input.Adjustments {
		switch adj.Squad.String() {
		case nameA:
			a.Breakdown.Adjustment += adj.Delta
		case nameB:
			b.Breakdown.Adjustment += adj.Delta
		}
	}

	a.Total = a.Breakdown.ActiveMember + a.Breakdown.Reactivation + a.Breakdown.Recommend + a.Breakdown.Adjustment
	b.Total = b.Breakdown.ActiveMember + b.Breakdown.Reactivation + b.Breakdown.Recommend + b.Breakdown.Adjustment

	return BattleResult{SquadA: a, SquadB: b}
}
