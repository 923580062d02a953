package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

const (
	// leaderboardKeyPrefix namespaces the per-month brand ranking keys.
	leaderboardKeyPrefix = "scoreboard:brands:"

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second
)

var (
	ErrRedisNotConnected = errors.New("redis not connected")
	ErrRedisEmpty        = errors.New("redis leaderboard is empty")
)

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with leaderboard operations.
// one sorted set per month keeps historic rankings readable after the
// month closes.
type RedisClient struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 50
	opts.MinIdleConns = 5

	client := redis.NewClient(opts)

	rc := &RedisClient{
		client: client,
		logger: logger.WithComponent("redis"),
	}

	return rc, nil
}

// leaderboardKey builds the sorted set key for a month.
func leaderboardKey(month string) string {
	return leaderboardKeyPrefix + month
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Info("redis connected")
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Client returns the underlying redis client.
// exposed for advanced usage, but prefer using the wrapped methods.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// UpdateBrandScore upserts a brand's total in the month's sorted set.
func (r *RedisClient) UpdateBrandScore(ctx context.Context, month, brand string, total float64) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	err := r.client.ZAdd(ctx, leaderboardKey(month), redis.Z{
		Score:  total,
		Member: brand,
	}).Err()

	if err != nil {
		r.logger.Error("failed to update leaderboard",
			"month", month,
			"brand", brand,
			"total", total,
			"error", err.Error(),
		)
		return fmt.Errorf("zadd failed: %w", err)
	}

	r.logger.Debug("leaderboard updated",
		"month", month,
		"brand", brand,
		"total", total,
	)

	return nil
}

// TopBrands returns the month's top N brand names ordered by total
// (descending).
func (r *RedisClient) TopBrands(ctx context.Context, month string, limit, offset int64) ([]string, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	start := offset
	stop := offset + limit - 1

	members, err := r.client.ZRevRange(ctx, leaderboardKey(month), start, stop).Result()
	if err != nil {
		r.logger.Error("failed to get top brands",
			"month", month,
			"limit", limit,
			"offset", offset,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	if len(members) == 0 {
		return nil, ErrRedisEmpty
	}

	return members, nil
}

// TopBrandsWithScores returns the month's top N brands with their totals.
func (r *RedisClient) TopBrandsWithScores(ctx context.Context, month string, limit, offset int64) ([]redis.Z, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	start := offset
	stop := offset + limit - 1

	results, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey(month), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrangewithscores failed: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrRedisEmpty
	}

	return results, nil
}

// BrandRank returns a brand's rank in a month (0-based, highest total
// = 0). returns -1 if the brand is not ranked.
func (r *RedisClient) BrandRank(ctx context.Context, month, brand string) (int64, error) {
	if r.client == nil {
		return -1, ErrRedisNotConnected
	}

	rank, err := r.client.ZRevRank(ctx, leaderboardKey(month), brand).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("zrevrank failed: %w", err)
	}

	return rank, nil
}

// RemoveBrand removes a brand from a month's leaderboard.
func (r *RedisClient) RemoveBrand(ctx context.Context, month, brand string) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	err := r.client.ZRem(ctx, leaderboardKey(month), brand).Err()
	if err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}

	r.logger.Debug("removed from leaderboard", "month", month, "brand", brand)
	return nil
}

// LeaderboardSize returns the number of ranked brands in a month.
func (r *RedisClient) LeaderboardSize(ctx context.Context, month string) (int64, error) {
	if r.client == nil {
		return 0, ErrRedisNotConnected
	}

	count, err := r.client.ZCard(ctx, leaderboardKey(month)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}

	return count, nil
}

// HealthCheck verifies Redis is responding.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	return r.client.Ping(ctx).Err()
}
