package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

type fakeLeaderboardUpdater struct {
	mu      sync.Mutex
	updates map[string]float64
	err     error
}

func (f *fakeLeaderboardUpdater) UpdateBrandScore(_ context.Context, month, brand string, total float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[string]float64)
	}
	f.updates[month+"/"+brand] = total
	return nil
}

func operator(handler, brand string) domain.Operator {
	return domain.Operator{
		Handler: domain.HandlerFromTrusted(handler),
		Brand:   domain.BrandFromTrusted(brand),
	}
}

func newLeaderboardFixture(assignments *fakeAssignmentRepo, deposits *fakeDepositRepo) *LeaderboardUseCase {
	score := newScoreUseCase(assignments, deposits, &fakeWeightRepo{weights: domain.DefaultWeightVector()})
	return NewLeaderboardUseCase(assignments, score, DefaultLeaderboardConfig(), logging.New())
}

func TestLeaderboard_InvalidMonth(t *testing.T) {
	uc := newLeaderboardFixture(&fakeAssignmentRepo{}, &fakeDepositRepo{})

	_, err := uc.Execute(context.Background(), LeaderboardInput{Month: "not-a-month"})
	if !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestLeaderboard_ListOperatorsFailureIsHard(t *testing.T) {
	assignments := &fakeAssignmentRepo{listErr: errors.New("store down")}
	uc := newLeaderboardFixture(assignments, &fakeDepositRepo{})

	if _, err := uc.Execute(context.Background(), LeaderboardInput{Month: "2024-02"}); err == nil {
		t.Fatal("expected error when the roster cannot be listed")
	}
}

func TestLeaderboard_RollupAndPodium(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		operators: []domain.Operator{
			operator("Night-A", "Alpha"),
			operator("Day-B", "Alpha"),
			operator("Night-C", "Beta"),
		},
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("any", "any", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}

	output, err := newLeaderboardFixture(assignments, deposits).
		Execute(context.Background(), LeaderboardInput{Month: "2024-02"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Processed != 3 || output.Succeeded != 3 || output.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, expected 3/3/0", output.Processed, output.Succeeded, output.Failed)
	}
	if len(output.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(output.Rows))
	}
	if len(output.Brands) != 2 {
		t.Errorf("expected 2 brand rollups, got %d", len(output.Brands))
	}
	if len(output.Podium) != 2 {
		t.Errorf("expected 2 podium entries, got %d", len(output.Podium))
	}
}

func TestLeaderboard_OperatorFailureContributesZero(t *testing.T) {
	// the roster carries a corrupt row with no handler; scoring it fails
	// while the healthy operators are unaffected
	assignments := &fakeAssignmentRepo{
		operators: []domain.Operator{
			operator("Night-A", "Alpha"),
			operator("", "Beta"),
		},
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("any", "any", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}

	output, err := newLeaderboardFixture(assignments, deposits).
		Execute(context.Background(), LeaderboardInput{Month: "2024-02"})
	if err != nil {
		t.Fatalf("one bad operator must not fail the pass: %v", err)
	}

	if output.Succeeded != 1 || output.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, expected 1/1", output.Succeeded, output.Failed)
	}

	for _, brand := range output.Brands {
		if brand.Brand.String() == "Beta" && brand.Result.Total != 0 {
			t.Errorf("failed operator's brand total = %f, expected 0", brand.Result.Total)
		}
	}
}

func TestLeaderboard_SyncsBrandTotals(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		operators: []domain.Operator{operator("Night-A", "Alpha")},
		byCategory: map[domain.Category][]domain.AssignmentRecord{
			domain.CategoryRetention: {assignment("any", "any", "C1", domain.CategoryRetention)},
		},
	}
	deposits := &fakeDepositRepo{
		events: []domain.DepositEvent{
			deposit("C1", "Alpha", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 100),
		},
	}
	updater := &fakeLeaderboardUpdater{}

	uc := newLeaderboardFixture(assignments, deposits).WithLeaderboard(updater)

	output, err := uc.Execute(context.Background(), LeaderboardInput{Month: "2024-02"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, ok := updater.updates["2024-02/Alpha"]; !ok || got != output.Brands[0].Result.Total {
		t.Errorf("cache update = %f (present %v), expected %f", got, ok, output.Brands[0].Result.Total)
	}
}

func TestLeaderboard_SyncFailureIsNonFatal(t *testing.T) {
	assignments := &fakeAssignmentRepo{
		operators: []domain.Operator{operator("Night-A", "Alpha")},
	}
	updater := &fakeLeaderboardUpdater{err: errors.New("redis unreachable")}

	uc := newLeaderboardFixture(assignments, &fakeDepositRepo{}).WithLeaderboard(updater)

	if _, err := uc.Execute(context.Background(), LeaderboardInput{Month: "2024-02"}); err != nil {
		t.Fatalf("cache sync failure must not fail the pass: %v", err)
	}
}
