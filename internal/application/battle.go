package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

// BattleScoreInput selects the month and cycle for the arena view.
type BattleScoreInput struct {
	Month string
	Cycle string
}

// BattleScoreOutput is the squad-vs-squad result plus context.
type BattleScoreOutput struct {
	Month  domain.Month
	Cycle  domain.Cycle
	Window domain.DateWindow
	Result domain.BattleResult
}

// AddAdjustmentInput is one manual adjustment log entry.
type AddAdjustmentInput struct {
	Squad  string
	Month  string
	Delta  float64
	Reason string
}

// BattleScoreUseCase computes the cross-squad competitive score:
// active-member counts credit the owning squad, reactivation/recommend
// hits apply their configured effect to the opposing squad, and manual
// adjustments are summed in last.
type BattleScoreUseCase struct {
	assignmentRepo domain.AssignmentRepository
	depositRepo    domain.DepositEventRepository
	squadRepo      domain.SquadRepository
	config         domain.BattleConfig
	logger         *logging.Logger
}

// NewBattleScoreUseCase creates a new BattleScoreUseCase.
func NewBattleScoreUseCase(
	assignmentRepo domain.AssignmentRepository,
	depositRepo domain.DepositEventRepository,
	squadRepo domain.SquadRepository,
	config domain.BattleConfig,
	logger *logging.Logger,
) *BattleScoreUseCase {
	return &BattleScoreUseCase{
		assignmentRepo: assignmentRepo,
		depositRepo:    depositRepo,
		squadRepo:      squadRepo,
		config:         config,
		logger:         logger.WithComponent("battle_score"),
	}
}

// Execute computes the battle score for the given month and cycle.
func (uc *BattleScoreUseCase) Execute(ctx context.Context, input BattleScoreInput) (*BattleScoreOutput, error) {
	month, err := domain.ParseMonth(input.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWindow, err)
	}
	cycle := domain.ParseCycle(input.Cycle)

	window, err := domain.ResolveWindow(month, cycle)
	if err != nil {
		return nil, err
	}

	mappings, err := uc.squadRepo.BrandMappings(ctx)
	if err != nil {
		// without the mapping there is nothing to attribute
		uc.logger.Error("battle scoring failed: brand mappings",
			"error", err.Error(),
		)
		return nil, fmt.Errorf("brand mappings: %w", err)
	}

	squadA, squadB := squadPair(mappings)
	if squadA.IsZero() || squadB.IsZero() {
		return nil, fmt.Errorf("%w: brand mapping must name two squads", domain.ErrInvalidInput)
	}

	var mappedBrands []domain.Brand
	for name := range mappings {
		mappedBrands = append(mappedBrands, domain.BrandFromTrusted(name))
	}

	events := uc.fetchEvents(ctx, mappedBrands, window)

	// qualifying event counts per squad, and an active (code, brand)
	// index for the opponent-effect metrics
	activeMemberCounts := make(map[string]int)
	activeByBrand := make(map[string]map[string]bool)
	for _, event := range events {
		brandName := event.Brand.String()
		squad, ok := mappings[brandName]
		if !ok {
			continue
		}
		activeMemberCounts[squad.String()]++

		codes, ok := activeByBrand[brandName]
		if !ok {
			codes = make(map[string]bool)
			activeByBrand[brandName] = codes
		}
		codes[domain.NormalizeCode(event.CustomerCode)] = true
	}

	reactivationHits, recommendHits := uc.countAssignmentHits(ctx, month, mappings, activeByBrand)
	adjustments := uc.fetchAdjustments(ctx, month)

	result := domain.ComputeBattleScore(domain.BattleInput{
		SquadA:             squadA,
		SquadB:             squadB,
		Config:             uc.config,
		ActiveMemberCounts: activeMemberCounts,
		ReactivationHits:   reactivationHits,
		RecommendHits:      recommendHits,
		Adjustments:        adjustments,
	})

	uc.logger.Info("battle score computed",
		"month", month.String(),
		"cycle", cycle.String(),
		"window", window.String(),
		"squad_a", squadA.String(),
		"squad_a_total", result.SquadA.Total,
		"squad_b", squadB.String(),
		"squad_b_total", result.SquadB.Total,
		"adjustments", len(adjustments),
	)

	return &BattleScoreOutput{
		Month:  month,
		Cycle:  cycle,
		Window: window,
		Result: result,
	}, nil
}

// AddAdjustment appends an entry to the manual adjustment log.
func (uc *BattleScoreUseCase) AddAdjustment(ctx context.Context, input AddAdjustmentInput) (*domain.AdjustmentEntry, error) {
	squad, err := domain.NewSquad(input.Squad)
	if err != nil {
		return nil, fmt.Errorf("invalid squad: %w", err)
	}
	month, err := domain.ParseMonth(input.Month)
	if err != nil {
		return nil, fmt.Errorf("invalid month: %w", err)
	}

	entry, err := domain.NewAdjustmentEntry(squad, month, input.Delta, input.Reason)
	if err != nil {
		return nil, err
	}

	if err := uc.squadRepo.SaveAdjustment(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving adjustment: %w", err)
	}

	uc.logger.Info("adjustment recorded",
		"squad", squad.String(),
		"month", month.String(),
		"delta", input.Delta,
	)

	return entry, nil
}

// fetchEvents pulls the window's qualifying events for the mapped
// brands, degrading to empty on failure.
func (uc *BattleScoreUseCase) fetchEvents(ctx context.Context, brands []domain.Brand, window domain.DateWindow) []domain.DepositEvent {
	events, err := uc.depositRepo.FindQualifyingByBrands(ctx, brands, window)
	if err != nil {
		uc.logger.SourceFetchDegraded("battle_deposit_events", err)
		return nil
	}
	return events
}

// countAssignmentHits counts the month's reactivation and recommend
// assignment records whose customer has at least one qualifying
// in-window activity date, deduplicated by (code, brand), attributed
// to the owning squad. unmapped brands are excluded and logged.
func (uc *BattleScoreUseCase) countAssignmentHits(
	ctx context.Context,
	month domain.Month,
	mappings map[string]domain.Squad,
	activeByBrand map[string]map[string]bool,
) (reactivation, recommend map[string]int) {
	reactivation = make(map[string]int)
	recommend = make(map[string]int)

	records, err := uc.assignmentRepo.ListByMonth(ctx, month)
	if err != nil {
		uc.logger.SourceFetchDegraded("battle_assignments", err)
		return reactivation, recommend
	}

	seen := make(map[string]bool)
	unmapped := make(map[string]bool)

	for _, record := range records {
		if record.Category != domain.CategoryReactivation && record.Category != domain.CategoryRecommend {
			continue
		}

		brandName := record.Brand.String()
		squad, ok := mappings[brandName]
		if !ok {
			unmapped[brandName] = true
			continue
		}

		code := domain.NormalizeCode(record.CustomerCode)
		if !activeByBrand[brandName][code] {
			continue
		}

		// dedup by (code, brand) per metric
		key := record.Category.String() + "|" + code + "|" + brandName
		if seen[key] {
			continue
		}
		seen[key] = true

		if record.Category == domain.CategoryReactivation {
			reactivation[squad.String()]++
		} else {
			recommend[squad.String()]++
		}
	}

	for brandName := range unmapped {
		uc.logger.Warn("brand has no squad mapping, excluded from battle",
			"brand", brandName,
		)
	}

	return reactivation, recommend
}

// fetchAdjustments loads the month's manual deltas, degrading to empty
// on failure.
func (uc *BattleScoreUseCase) fetchAdjustments(ctx context.Context, month domain.Month) []domain.AdjustmentEntry {
	adjustments, err := uc.squadRepo.ListAdjustments(ctx, month)
	if err != nil {
		uc.logger.SourceFetchDegraded("battle_adjustments", err)
		return nil
	}
	return adjustments
}

// squadPair derives the two competing squads from the mapping values,
// in stable name order.
func squadPair(mappings map[string]domain.Squad) (domain.Squad, domain.Squad) {
	names := make(map[string]bool)
	for _, squad := range mappings {
		names[squad.String()] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var a, b domain.Squad
	if len(sorted) > 0 {
		a = domain.SquadFromTrusted(sorted[0])
	}
	if len(sorted) > 1 {
		b = domain.SquadFromTrusted(sorted[1])
	}
	return a, b
}
