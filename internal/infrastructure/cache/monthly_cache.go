package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arenaops/scoreboard/internal/domain"
)

// SnapshotMetrics receives cache hit/miss counts.
// satisfied by the metrics registry; nil disables recording.
type SnapshotMetrics interface {
	RecordSnapshotHit()
	RecordSnapshotMiss()
}

// MonthlySnapshotCache is an in-memory TTL cache for month-wide join
// inputs. a leaderboard pass scores dozens of operators against the
// same month, so one fetch of the month's assignments and events is
// shared across all of them.
//
// concurrent misses on the same month may each trigger a fetch; the
// last writer wins and entries are replaced wholesale. expired data is
// never served.
type MonthlySnapshotCache struct {
	entries map[string]*snapshotEntry
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time

	assignmentRepo domain.AssignmentRepository
	depositRepo    domain.DepositEventRepository
	metrics        SnapshotMetrics
}

type snapshotEntry struct {
	snapshot  *domain.MonthlySnapshot
	expiresAt time.Time
}

// NewMonthlySnapshotCache creates a new snapshot cache.
func NewMonthlySnapshotCache(
	assignmentRepo domain.AssignmentRepository,
	depositRepo domain.DepositEventRepository,
	ttl time.Duration,
) *MonthlySnapshotCache {
	return &MonthlySnapshotCache{
		entries:        make(map[string]*snapshotEntry),
		ttl:            ttl,
		clock:          time.Now,
		assignmentRepo: assignmentRepo,
		depositRepo:    depositRepo,
	}
}

// WithClock sets a custom clock for testing.
func (c *MonthlySnapshotCache) WithClock(clock func() time.Time) *MonthlySnapshotCache {
	c.clock = clock
	return c
}

// WithMetrics sets the hit/miss recorder.
func (c *MonthlySnapshotCache) WithMetrics(m SnapshotMetrics) *MonthlySnapshotCache {
	c.metrics = m
	return c
}

// Snapshot returns the month's snapshot, fetching on miss or expiry.
func (c *MonthlySnapshotCache) Snapshot(ctx context.Context, month domain.Month) (*domain.MonthlySnapshot, error) {
	key := month.String()

	// fast path: unexpired entry
	c.mu.RLock()
	entry, ok := c.entries[key]
	if ok && c.clock().Before(entry.expiresAt) {
		c.mu.RUnlock()
		c.recordHit()
		return entry.snapshot, nil
	}
	c.mu.RUnlock()

	c.recordMiss()

	snapshot, err := c.fetch(ctx, month)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &snapshotEntry{
		snapshot:  snapshot,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()

	return snapshot, nil
}

// fetch pulls the month's assignments and qualifying events in parallel.
// either fetch failing fails the whole snapshot; callers degrade to the
// direct per-operator path.
func (c *MonthlySnapshotCache) fetch(ctx context.Context, month domain.Month) (*domain.MonthlySnapshot, error) {
	var (
		assignments []domain.AssignmentRecord
		events      []domain.DepositEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignments, err = c.assignmentRepo.ListByMonth(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = c.depositRepo.FindQualifyingByMonth(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.MonthlySnapshot{
		Month:       month,
		Assignments: assignments,
		Events:      events,
		FetchedAt:   c.clock(),
	}, nil
}

// Invalidate removes a month from the cache.
// call this when upstream data for the month is known to have changed.
func (c *MonthlySnapshotCache) Invalidate(month domain.Month) {
	c.mu.Lock()
	delete(c.entries, month.String())
	c.mu.Unlock()
}

// Size returns the current number of cached months.
func (c *MonthlySnapshotCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries.
// call this periodically to prevent memory growth.
func (c *MonthlySnapshotCache) Cleanup() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MonthlySnapshotCache) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordSnapshotHit()
	}
}

func (c *MonthlySnapshotCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordSnapshotMiss()
	}
}
