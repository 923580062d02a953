package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

type fakeAssignmentRepo struct {
	mu         sync.Mutex
	byCategory map[domain.Category][]domain.AssignmentRecord
	failing    map[domain.Category]error
	byMonth    []domain.AssignmentRecord
	operators  []domain.Operator
	listErr    error
	calls      int
}

func (f *fakeAssignmentRepo) ListByCategory(_ context.Context, _ domain.Handler, _ domain.Brand, _ domain.Month, category domain.Category) ([]domain.AssignmentRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.failing[category]; ok {
		return nil, err
	}
	return f.byCategory[category], nil
}

func (f *fakeAssignmentRepo) ListByMonth(_ context.Context, _ domain.Month) ([]domain.AssignmentRecord, error) {
	return f.byMonth, nil
}

func (f *fakeAssignmentRepo) ListOperators(_ context.Context, _ domain.Month) ([]domain.Operator, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.operators, nil
}

type fakeDepositRepo struct {
	mu     sync.Mutex
	events []domain.DepositEvent
	err    error
	calls  int
}

func (f *fakeDepositRepo) FindQualifying(_ context.Context, _ []string, _ domain.Brand, _ domain.DateWindow) ([]domain.DepositEvent, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeDepositRepo) FindQualifyingByMonth(_ context.Context, _ domain.Month) ([]domain.DepositEvent, error) {
	return f.events, nil
}

func (f *fakeDepositRepo) FindQualifyingByBrands(_ context.Context, _ []domain.Brand, _ domain.DateWindow) ([]domain.DepositEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeWeightRepo struct {
	weights domain.WeightVector
	err     error
}

func (f *fakeWeightRepo) FindByMonth(_ context.Context, _ domain.Month) (domain.WeightVector, error) {
	if f.err != nil {
		return domain.WeightVector{}, f.err
	}
	return f.weights, nil
}

type fakeSnapshotProvider struct {
	snapshot *domain.MonthlySnapshot
	err      error
	calls    int
}

func (f *fakeSnapshotProvider) Snapshot(_ context.Context, _ domain.Month) (*domain.MonthlySnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func assignment(handler, brand, code string, category domain.Category) domain.AssignmentRecord {
	return domain.AssignmentRecord{
		CustomerCode: code,
		Brand:        domain.BrandFromTrusted(brand),
		Handler:      domain.HandlerFromTrusted(handler),
		Category:     category,
	}
}

func deposit(code, brand string, day time.Time, amount float64) domain.DepositEvent {
	return domain.DepositEvent{
		CustomerCode: code,
		Brand:        domain.BrandFromTrusted(brand),
		Day:          day,
		Amount:       decimal.NewFromFloat(amount),
		Cases:        1,
	}
}

func newScoreUseCase(assignments *fakeAssignmentRepo, deposits *fakeDepositRepo, weights *fakeWeightRepo) *ScoreOperatorUseCase {
	return NewScoreOperatorUseCase(assignments, deposits, weights, DefaultScoreConfig(), logging.New())
}

func scoreInput() ScoreOperatorInput {
	return ScoreOperatorInput{Handler: "Night-A", Brand: "Alpha", Month: "2024-02", Cycle: "All"}
}

func TestScoreOperator_InvalidMonth(t *testing.T) {
	uc := newScoreUseCase(&fakeAssignmentRepo{}, &fakeDepositRepo{}, &fakeWeightRepo{})

	input := scoreInput()
	input.Month = "february"

	_, err := uc.Execute(context.Background(), input)
	if !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestScoreOperator_EmptyHandlerRejected(t *testing.T) {
	uc := newScoreUseCase(&fakeAssignmentRepo{}, &fakeDepositRepo{}, &fakeWeightRepo{})

	input := scoreInput()
	input.Handler = ""

	if _, err := uc.Execute(context.Background(), input); err == nil {
		t.Fatal("expected error for empty handler")
	}
}

func TestScoreOperator_HappyPath(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100000),
			deposit("C1", "Alpha", time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), 0),
			deposit("C1", "Alpha", time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC), 0),
			deposit("C1", "Alpha", time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC), 0),
			deposit("C1", "Alpha", time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), 0),
		},
	}
	weights := &fakeWeightRepo{
		weights: domain.WeightVector{
			DepositAmount: 0.001,
			Retention:     5, Reactivation: 5, Recommend: 5,
			Days4to7: 5, Days8to11: 5, Days12to15: 5, Days16to19: 5, Days20Plus: 5,
		},
	}

	output, err := newScoreUseCase(assignments, deposits, weights).Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 deposit points + 5 retention + 5 for the 4-7 day bucket
	if output.Result.Total != 110 {
		t.Errorf("total = %f, expected 110", output.Result.Total)
	}
	if len(output.DegradedSources) != 0 {
		t.Errorf("expected no degraded sources, got %v", output.DegradedSources)
	}
}

func TestScoreOperator_CategoryFailureDegrades(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", "C1", domain.CategoryRetention)},
		},
		failing: map[domain.Category]error{
			domain.CategoryReactivation: errors.New("upstream timeout"),
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}

	output, err := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("expected degraded result, not error: %v", err)
	}

	if len(output.DegradedSources) != 1 || output.DegradedSources[0] != "assignments_reactivation" {
		t.Errorf("degraded sources = %v, expected [assignments_reactivation]", output.DegradedSources)
	}
	// the surviving retention category still scores
	if output.Result.RawCounts.RetentionActive != 1 {
		t.Errorf("retention active = %d, expected 1", output.Result.RawCounts.RetentionActive)
	}
}

func TestScoreOperator_AllAssignmentFetchesFail(t *testing.T) {
	failing := make(map[domain.Category]error, len(domain.Categories))
	for _, category := range domain.Categories {
		failing[category] = errors.New("store down")
	}
	assignments := &fakeAssignmentRepo{failing: failing}
	deposits := &fakeDepositRepo{}

	output, err := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("expected zero score, not error: %v", err)
	}

	if output.Result.Total != 0 {
		t.Errorf("total = %f, expected 0", output.Result.Total)
	}
	if len(output.DegradedSources) != len(domain.Categories) {
		t.Errorf("degraded sources = %v, expected one per category", output.DegradedSources)
	}
	// empty union means the bulk activity fetch is skipped entirely
	if deposits.calls != 0 {
		t.Errorf("expected no deposit fetch, got %d calls", deposits.calls)
	}
}

func TestScoreOperator_DepositFailureDegrades(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{err: errors.New("feed unavailable")}

	output, err := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("expected degraded result, not error: %v", err)
	}

	if output.Result.Total != 0 {
		t.Errorf("total = %f, expected 0 with no activity", output.Result.Total)
	}
	if len(output.DegradedSources) != 1 || output.DegradedSources[0] != "deposit_events" {
		t.Errorf("degraded sources = %v, expected [deposit_events]", output.DegradedSources)
	}
}

func TestScoreOperator_NormalizationJoinsAcrossSources(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", " abc123 ", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("ABC123", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}

	output, err := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Result.RawCounts.RetentionActive != 1 {
		t.Errorf("retention active = %d, expected 1 after code normalization", output.Result.RawCounts.RetentionActive)
	}
}

func TestScoreOperator_MissingWeightsUseDefaults(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}
	weights := &fakeWeightRepo{err: domain.ErrNotFound}

	output, err := newScoreUseCase(assignments, deposits, weights).Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defaults := domain.DefaultWeightVector()
	expected := domain.CalculateScore(domain.ScoreInput{
		DepositTotal:    decimal.NewFromInt(100),
		RetentionActive: 1,
		Weights:         defaults,
	})
	if output.Result.Total != expected.Total {
		t.Errorf("total = %f, expected %f from default weights", output.Result.Total, expected.Total)
	}
}

func TestScoreOperator_SnapshotBypassesDirectFetches(t *testing.T) {
	month, err := domain.ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("parsing month: %v", err)
	}

	snapshots := &fakeSnapshotProvider{
		snapshot: &domain.MonthlySnapshot{
			Month: month,
			Assignments: []domain.AssignmentRecord{
				assignment("Night-A", "Alpha", "C1", domain.CategoryRetention),
				assignment("Day-B", "Alpha", "C2", domain.CategoryRetention), // other operator
			},
			Events: []domain.DepositEvent{
				deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
				deposit("C2", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 999),
			},
			FetchedAt: time.Now(),
		},
	}
	assignments := &fakeAssignmentRepo{}
	deposits := &fakeDepositRepo{err: errors.New("should not be called")}

	uc := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		WithSnapshots(snapshots)

	output, err := uc.Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshots.calls != 1 {
		t.Errorf("snapshot calls = %d, expected 1", snapshots.calls)
	}
	if assignments.calls != 0 || deposits.calls != 0 {
		t.Errorf("direct fetches = %d/%d, expected 0/0 with snapshot wired", assignments.calls, deposits.calls)
	}
	// the other operator's customer never leaks in
	if output.Result.RawCounts.RetentionActive != 1 {
		t.Errorf("retention active = %d, expected 1", output.Result.RawCounts.RetentionActive)
	}
	if !output.Result.RawCounts.DepositTotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("deposit total = %s, expected 100", output.Result.RawCounts.DepositTotal)
	}
}

func TestScoreOperator_SnapshotFailureFallsBackToDirect(t *testing.T) {
	snapshots := &fakeSnapshotProvider{err: errors.New("cache store down")}
	assignments := &fakeAssignmentRepo{
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("Night-A", "Alpha", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}

	uc := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()}).
		WithSnapshots(snapshots)

	output, err := uc.Execute(context.Background(), scoreInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assignments.calls == 0 {
		t.Error("expected fallback to direct assignment fetches")
	}
	if len(output.DegradedSources) == 0 || output.DegradedSources[0] != "monthly_snapshot" {
		t.Errorf("degraded sources = %v, expected monthly_snapshot first", output.DegradedSources)
	}
	if output.Result.RawCounts.RetentionActive != 1 {
		t.Errorf("retention active = %d, expected 1 via fallback", output.Result.RawCounts.RetentionActive)
	}
}
