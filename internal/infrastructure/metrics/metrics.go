package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all prometheus metrics for the scoreboard.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// scoreboard_operators_scored_total - counter for score computations
	OperatorsScoredTotal *prometheus.CounterVec

	// scoreboard_snapshot_cache_hits_total / misses_total
	SnapshotCacheHits   prometheus.Counter
	SnapshotCacheMisses prometheus.Counter

	// scoreboard_leaderboard_refresh_duration_seconds - histogram for the refresh worker
	LeaderboardRefreshDuration prometheus.Histogram

	// scoreboard_webhook_queue_size - gauge for pending podium notifications
	WebhookQueueSize prometheus.Gauge
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		OperatorsScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_operators_scored_total",
				Help: "Total number of operator score computations",
			},
			[]string{"brand", "outcome"},
		),

		SnapshotCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_snapshot_cache_hits_total",
			Help: "Monthly snapshot cache hits",
		}),

		SnapshotCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_snapshot_cache_misses_total",
			Help: "Monthly snapshot cache misses",
		}),

		LeaderboardRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoreboard_leaderboard_refresh_duration_seconds",
			Help:    "Duration of leaderboard refresh passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
		}),

		WebhookQueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoreboard_webhook_queue_size",
			Help: "Current number of podium notifications waiting for delivery",
		}),
	}

	// register all custom metrics
	reg.MustRegister(
		m.HTTPRequestDuration,
		m.OperatorsScoredTotal,
		m.SnapshotCacheHits,
		m.SnapshotCacheMisses,
		m.LeaderboardRefreshDuration,
		m.WebhookQueueSize,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// RecordOperatorScored increments the scoring counter.
func (m *Metrics) RecordOperatorScored(brand, outcome string) {
	m.OperatorsScoredTotal.WithLabelValues(brand, outcome).Inc()
}

// RecordSnapshotHit increments the snapshot cache hit counter.
func (m *Metrics) RecordSnapshotHit() {
	m.SnapshotCacheHits.Inc()
}

// RecordSnapshotMiss increments the snapshot cache miss counter.
func (m *Metrics) RecordSnapshotMiss() {
	m.SnapshotCacheMisses.Inc()
}

// RecordLeaderboardRefresh records the duration of a refresh pass.
func (m *Metrics) RecordLeaderboardRefresh(durationSeconds float64) {
	m.LeaderboardRefreshDuration.Observe(durationSeconds)
}

// SetWebhookQueueSize sets the pending notification gauge.
func (m *Metrics) SetWebhookQueueSize(size int) {
	m.WebhookQueueSize.Set(float64(size))
}
