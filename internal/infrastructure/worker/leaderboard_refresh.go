package worker

import (
	"context"
	"sync"
	"time"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

// RefreshMetrics abstracts the refresh duration histogram.
type RefreshMetrics interface {
	RecordLeaderboardRefresh(durationSeconds float64)
}

// LeaderboardRefreshConfig holds configuration for the refresh worker.
type LeaderboardRefreshConfig struct {
	// Interval between refresh passes.
	Interval time.Duration
}

// DefaultLeaderboardRefreshConfig returns sensible defaults.
func DefaultLeaderboardRefreshConfig() LeaderboardRefreshConfig {
	return LeaderboardRefreshConfig{
		Interval: 5 * time.Minute,
	}
}

// LeaderboardRefreshWorker periodically recomputes the current month's
// leaderboard, pushes brand totals to the cache and dispatches podium
// change notifications.
type LeaderboardRefreshWorker struct {
	leaderboardUseCase *application.LeaderboardUseCase
	notifier           domain.PodiumNotifier
	config             LeaderboardRefreshConfig
	timeProvider       application.TimeProvider
	logger             *logging.Logger
	metrics            RefreshMetrics

	// lastPodium holds the previous pass's podium per month so changes
	// survive a month rollover.
	lastPodium map[string][]domain.BrandScore

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// NewLeaderboardRefreshWorker creates a new refresh worker.
func NewLeaderboardRefreshWorker(
	leaderboardUseCase *application.LeaderboardUseCase,
	config LeaderboardRefreshConfig,
	logger *logging.Logger,
) *LeaderboardRefreshWorker {
	return &LeaderboardRefreshWorker{
		leaderboardUseCase: leaderboardUseCase,
		config:             config,
		timeProvider:       application.RealTime,
		logger:             logger.WithComponent("leaderboard_refresh"),
		lastPodium:         make(map[string][]domain.BrandScore),
		stop:               make(chan struct{}),
		stopped:            make(chan struct{}),
	}
}

// WithNotifier sets the podium change notifier.
func (w *LeaderboardRefreshWorker) WithNotifier(n domain.PodiumNotifier) *LeaderboardRefreshWorker {
	w.notifier = n
	return w
}

// WithMetrics sets the refresh duration recorder.
func (w *LeaderboardRefreshWorker) WithMetrics(m RefreshMetrics) *LeaderboardRefreshWorker {
	w.metrics = m
	return w
}

// WithTimeProvider sets a custom time provider for testing.
func (w *LeaderboardRefreshWorker) WithTimeProvider(tp application.TimeProvider) *LeaderboardRefreshWorker {
	w.timeProvider = tp
	return w
}

// Start begins the periodic refresh loop.
func (w *LeaderboardRefreshWorker) Start(ctx context.Context) {
	w.logger.Info("leaderboard refresh worker starting",
		"interval", w.config.Interval.String(),
	)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully shuts down the worker.
func (w *LeaderboardRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("leaderboard refresh worker stopping")
		close(w.stop)
		w.wg.Wait()
		close(w.stopped)
		w.logger.Info("leaderboard refresh worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *LeaderboardRefreshWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// run is the main refresh loop.
func (w *LeaderboardRefreshWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// one pass immediately so the cache is warm before the first tick
	w.RefreshOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.RefreshOnce(ctx)
		case <-w.stop:
			return
		case <-ctx.Done():
			w.logger.Debug("refresh loop exiting on context cancel")
			return
		}
	}
}

// RefreshOnce runs a single refresh pass for the current month.
func (w *LeaderboardRefreshWorker) RefreshOnce(ctx context.Context) {
	now := w.timeProvider()
	month := domain.MonthOf(now)

	start := time.Now()
	output, err := w.leaderboardUseCase.Execute(ctx, application.LeaderboardInput{
		Month: month.String(),
	})
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.RecordLeaderboardRefresh(duration.Seconds())
	}

	if err != nil {
		w.logger.Error("leaderboard refresh failed",
			"month", month.String(),
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	w.notifyPodiumChanges(ctx, month, output.Podium, now)

	w.logger.Info("leaderboard refreshed",
		"month", month.String(),
		"operators", output.Processed,
		"failed", output.Failed,
		"duration_ms", duration.Milliseconds(),
	)
}

// notifyPodiumChanges diffs the new podium against the previous pass
// and queues one notification per changed brand.
func (w *LeaderboardRefreshWorker) notifyPodiumChanges(ctx context.Context, month domain.Month, podium []domain.BrandScore, now time.Time) {
	key := month.String()
	previous := w.lastPodium[key]
	w.lastPodium[key] = podium

	if w.notifier == nil {
		return
	}

	for _, change := range domain.DiffPodium(month, previous, podium, now) {
		if _, err := w.notifier.NotifyPodiumChange(ctx, change); err != nil {
			w.logger.Warn("podium notification failed",
				"brand", change.Brand.String(),
				"error", err.Error(),
			)
		}
	}
}
