package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

// TimeProvider abstracts time acquisition for testability.
// inject a custom implementation to control time in tests.
type TimeProvider func() time.Time

// RealTime returns the current UTC time.
// use this in production.
func RealTime() time.Time {
	return time.Now().UTC()
}

// ScoreConfig contains parameters for operator scoring.
type ScoreConfig struct {
	// FetchTimeout bounds each external fetch. a timed-out fetch is a
	// partial failure (empty result + warning), not a computation error.
	FetchTimeout time.Duration
}

// DefaultScoreConfig returns sensible defaults.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		FetchTimeout: 10 * time.Second,
	}
}

// SnapshotProvider abstracts the monthly snapshot cache.
// allows the use case to remain decoupled from cache specifics.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, month domain.Month) (*domain.MonthlySnapshot, error)
}

// ScoreOperatorInput identifies one operator and scoring window.
type ScoreOperatorInput struct {
	Handler string
	Brand   string
	Month   string
	Cycle   string
}

// ScoreOperatorOutput contains the result of one operator computation.
type ScoreOperatorOutput struct {
	Operator domain.Operator
	Month    domain.Month
	Cycle    domain.Cycle
	Window   domain.DateWindow
	Result   domain.ScoreResult

	// DegradedSources names the fetches that failed and were folded to
	// empty results. callers render a zero score either way.
	DegradedSources []string
}

// ScoreOperatorUseCase reconciles assignment lists against deposit
// activity for one operator and window, then applies the month's
// weight vector.
type ScoreOperatorUseCase struct {
	assignmentRepo domain.AssignmentRepository
	depositRepo    domain.DepositEventRepository
	weightRepo     domain.WeightRepository
	snapshots      SnapshotProvider
	config         ScoreConfig
	timeProvider   TimeProvider
	logger         *logging.Logger
}

// NewScoreOperatorUseCase creates a new ScoreOperatorUseCase.
func NewScoreOperatorUseCase(
	assignmentRepo domain.AssignmentRepository,
	depositRepo domain.DepositEventRepository,
	weightRepo domain.WeightRepository,
	config ScoreConfig,
	logger *logging.Logger,
) *ScoreOperatorUseCase {
	return &ScoreOperatorUseCase{
		assignmentRepo: assignmentRepo,
		depositRepo:    depositRepo,
		weightRepo:     weightRepo,
		config:         config,
		timeProvider:   RealTime,
		logger:         logger.WithComponent("score_operator"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *ScoreOperatorUseCase) WithTimeProvider(tp TimeProvider) *ScoreOperatorUseCase {
	uc.timeProvider = tp
	return uc
}

// WithSnapshots sets the monthly snapshot cache. when set, leaderboard
// passes reuse one month-wide fetch instead of hitting the store per
// operator.
func (uc *ScoreOperatorUseCase) WithSnapshots(sp SnapshotProvider) *ScoreOperatorUseCase {
	uc.snapshots = sp
	return uc
}

// Execute scores one operator for the given month and cycle.
func (uc *ScoreOperatorUseCase) Execute(ctx context.Context, input ScoreOperatorInput) (*ScoreOperatorOutput, error) {
	handler, err := domain.NewHandler(input.Handler)
	if err != nil {
		return nil, fmt.Errorf("invalid handler: %w", err)
	}
	brand, err := domain.NewBrand(input.Brand)
	if err != nil {
		return nil, fmt.Errorf("invalid brand: %w", err)
	}
	month, err := domain.ParseMonth(input.Month)
	if err != nil {
		uc.logger.Warn("scoring rejected: invalid month",
			"month", input.Month,
			"reason", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWindow, err)
	}
	cycle := domain.ParseCycle(input.Cycle)

	window, err := domain.ResolveWindow(month, cycle)
	if err != nil {
		return nil, err
	}

	output := &ScoreOperatorOutput{
		Operator: domain.Operator{Handler: handler, Brand: brand},
		Month:    month,
		Cycle:    cycle,
		Window:   window,
	}

	// one snapshot fetch serves both the assignment and activity joins
	// when the cache is wired; otherwise fall back to direct fetches.
	var snapshot *domain.MonthlySnapshot
	if uc.snapshots != nil {
		snapshot, err = uc.snapshots.Snapshot(ctx, month)
		if err != nil {
			uc.logger.SourceFetchDegraded("monthly_snapshot", err)
			output.DegradedSources = append(output.DegradedSources, "monthly_snapshot")
			snapshot = nil
		}
	}

	book := uc.loadAssignments(ctx, snapshot, handler, brand, month, output)
	summary := uc.loadActivity(ctx, snapshot, book, brand, window, output)
	weights := uc.loadWeights(ctx, month)

	active := summary.ActiveSet()
	buckets := domain.ClassifyBuckets(summary.DistinctDayCounts())

	result := domain.CalculateScore(domain.ScoreInput{
		DepositTotal:       summary.DepositTotal(),
		RetentionActive:    book.ActiveInCategory(domain.CategoryRetention, active),
		ReactivationActive: book.ActiveInCategory(domain.CategoryReactivation, active),
		RecommendActive:    book.ActiveInCategory(domain.CategoryRecommend, active),
		Buckets:            buckets,
		Weights:            weights,
	})

	if result.BreakdownDrift != 0 {
		uc.logger.Warn("breakdown rounding drift",
			"handler", handler.String(),
			"brand", brand.String(),
			"total", result.Total,
			"drift", result.BreakdownDrift,
		)
	}

	output.Result = result

	uc.logger.Info("operator scored",
		"handler", handler.String(),
		"brand", brand.String(),
		"month", month.String(),
		"cycle", cycle.String(),
		"window", window.String(),
		"total", result.Total,
		"active_customers", summary.ActiveCount(),
		"bucketed_customers", buckets.Total(),
		"degraded_sources", len(output.DegradedSources),
	)

	return output, nil
}

// loadAssignments builds the operator's assignment book, from the
// snapshot when available, otherwise by fanning out the four category
// fetches. a failed category fetch degrades to an empty list; the other
// categories and the overall computation proceed.
func (uc *ScoreOperatorUseCase) loadAssignments(
	ctx context.Context,
	snapshot *domain.MonthlySnapshot,
	handler domain.Handler,
	brand domain.Brand,
	month domain.Month,
	output *ScoreOperatorOutput,
) *domain.AssignmentBook {
	if snapshot != nil {
		return domain.NewAssignmentBook(snapshot.AssignmentsFor(handler, brand))
	}

	byCategory := make(map[domain.Category][]domain.AssignmentRecord, len(domain.Categories))
	results := make([][]domain.AssignmentRecord, len(domain.Categories))
	failures := make([]error, len(domain.Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range domain.Categories {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, uc.config.FetchTimeout)
			defer cancel()

			records, err := uc.assignmentRepo.ListByCategory(fetchCtx, handler, brand, month, category)
			if err != nil {
				// degrade to empty, never abort the sibling fetches
				failures[i] = err
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	for i, category := range domain.Categories {
		if failures[i] != nil {
			uc.logger.SourceFetchDegraded("assignments_"+category.String(), failures[i])
			output.DegradedSources = append(output.DegradedSources, "assignments_"+category.String())
		}
		byCategory[category] = results[i]
	}
	return domain.NewAssignmentBook(byCategory)
}

// loadActivity performs the single bulk activity fetch for the union
// set and folds it into the per-code summary. a failed fetch degrades
// to an empty summary.
func (uc *ScoreOperatorUseCase) loadActivity(
	ctx context.Context,
	snapshot *domain.MonthlySnapshot,
	book *domain.AssignmentBook,
	brand domain.Brand,
	window domain.DateWindow,
	output *ScoreOperatorOutput,
) *domain.ActivitySummary {
	union := book.Union()
	if len(union) == 0 {
		return domain.BuildActivitySummary(nil, window)
	}

	if snapshot != nil {
		return domain.BuildActivitySummary(snapshot.EventsFor(brand, union), window)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.config.FetchTimeout)
	defer cancel()

	events, err := uc.depositRepo.FindQualifying(fetchCtx, union, brand, window)
	if err != nil {
		uc.logger.SourceFetchDegraded("deposit_events", err)
		output.DegradedSources = append(output.DegradedSources, "deposit_events")
		return domain.BuildActivitySummary(nil, window)
	}

	return domain.BuildActivitySummary(events, window)
}

// loadWeights fetches the month's weight vector, defaulting when the
// month has no row or the fetch fails.
func (uc *ScoreOperatorUseCase) loadWeights(ctx context.Context, month domain.Month) domain.WeightVector {
	fetchCtx, cancel := context.WithTimeout(ctx, uc.config.FetchTimeout)
	defer cancel()

	weights, err := uc.weightRepo.FindByMonth(fetchCtx, month)
	if errors.Is(err, domain.ErrNotFound) {
		uc.logger.Debug("no weight vector for month, using defaults", "month", month.String())
		return domain.DefaultWeightVector()
	}
	if err != nil {
		uc.logger.SourceFetchDegraded("weight_vector", err)
		return domain.DefaultWeightVector()
	}
	return weights
}
