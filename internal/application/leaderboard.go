package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

// LeaderboardUpdater abstracts the cache layer for brand rankings.
// allows the use case to remain decoupled from redis specifics.
type LeaderboardUpdater interface {
	UpdateBrandScore(ctx context.Context, month, brand string, total float64) error
}

// LeaderboardConfig contains parameters for a leaderboard pass.
type LeaderboardConfig struct {
	// OperatorConcurrency bounds the per-operator fan-out.
	OperatorConcurrency int

	// PodiumSize is the number of ranked brands in the podium view.
	PodiumSize int
}

// DefaultLeaderboardConfig returns sensible defaults.
func DefaultLeaderboardConfig() LeaderboardConfig {
	return LeaderboardConfig{
		OperatorConcurrency: 8,
		PodiumSize:          3,
	}
}

// LeaderboardInput selects the month and cycle to rank.
type LeaderboardInput struct {
	Month string
	Cycle string
}

// LeaderboardOutput contains per-operator rows, per-brand rollups and
// the podium for one pass.
type LeaderboardOutput struct {
	Month  domain.Month
	Cycle  domain.Cycle
	Rows   []domain.TaggedScore
	Brands []domain.BrandScore
	Podium []domain.BrandScore

	Processed int
	Succeeded int
	Failed    int
}

// LeaderboardUseCase scores every operator with assignments in a month
// and rolls the results up per brand. operators share the monthly
// snapshot cache; one operator's failure never affects the others.
type LeaderboardUseCase struct {
	assignmentRepo domain.AssignmentRepository
	scoreUseCase   *ScoreOperatorUseCase
	leaderboard    LeaderboardUpdater
	config         LeaderboardConfig
	logger         *logging.Logger
}

// NewLeaderboardUseCase creates a new LeaderboardUseCase.
func NewLeaderboardUseCase(
	assignmentRepo domain.AssignmentRepository,
	scoreUseCase *ScoreOperatorUseCase,
	config LeaderboardConfig,
	logger *logging.Logger,
) *LeaderboardUseCase {
	return &LeaderboardUseCase{
		assignmentRepo: assignmentRepo,
		scoreUseCase:   scoreUseCase,
		config:         config,
		logger:         logger.WithComponent("leaderboard"),
	}
}

// WithLeaderboard sets the leaderboard updater (redis cache).
// when set, brand totals are also pushed to the cache.
func (uc *LeaderboardUseCase) WithLeaderboard(lb LeaderboardUpdater) *LeaderboardUseCase {
	uc.leaderboard = lb
	return uc
}

// Execute runs a full leaderboard pass for the given month and cycle.
func (uc *LeaderboardUseCase) Execute(ctx context.Context, input LeaderboardInput) (*LeaderboardOutput, error) {
	month, err := domain.ParseMonth(input.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWindow, err)
	}
	cycle := domain.ParseCycle(input.Cycle)

	operators, err := uc.assignmentRepo.ListOperators(ctx, month)
	if err != nil {
		uc.logger.Error("leaderboard pass failed: listing operators",
			"month", month.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing operators: %w", err)
	}

	output := &LeaderboardOutput{
		Month:     month,
		Cycle:     cycle,
		Processed: len(operators),
	}

	// one independent computation per operator, bounded fan-out.
	// failures are isolated: a failed branch contributes a zero result.
	rows := make([]domain.TaggedScore, len(operators))
	outcomes := make([]bool, len(operators))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.config.OperatorConcurrency)

	for i, operator := range operators {
		g.Go(func() error {
			scored, err := uc.scoreUseCase.Execute(gctx, ScoreOperatorInput{
				Handler: operator.Handler.String(),
				Brand:   operator.Brand.String(),
				Month:   month.String(),
				Cycle:   cycle.String(),
			})
			if err != nil {
				uc.logger.Warn("operator scoring failed, contributing zero",
					"handler", operator.Handler.String(),
					"brand", operator.Brand.String(),
					"error", err.Error(),
				)
				rows[i] = domain.TaggedScore{Operator: operator, Result: domain.ZeroScore()}
				return nil
			}
			rows[i] = domain.TaggedScore{Operator: operator, Result: scored.Result}
			outcomes[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range outcomes {
		if ok {
			output.Succeeded++
		} else {
			output.Failed++
		}
	}

	output.Rows = rows
	output.Brands = domain.AggregateByBrand(rows)
	output.Podium = domain.TopBrands(output.Brands, uc.config.PodiumSize)

	// sync brand totals to redis (best-effort, postgres data is the
	// source of truth)
	if uc.leaderboard != nil {
		for _, brand := range output.Brands {
			if err := uc.leaderboard.UpdateBrandScore(ctx, month.String(), brand.Brand.String(), brand.Result.Total); err != nil {
				uc.logger.Warn("leaderboard sync failed",
					"brand", brand.Brand.String(),
					"total", brand.Result.Total,
					"error", err.Error(),
				)
			}
		}
	}

	uc.logger.Info("leaderboard pass completed",
		"month", month.String(),
		"cycle", cycle.String(),
		"operators", output.Processed,
		"succeeded", output.Succeeded,
		"failed", output.Failed,
		"brands", len(output.Brands),
	)

	return output, nil
}
