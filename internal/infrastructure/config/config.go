package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// loaded from environment variables, no magic defaults for required fields.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Scoring  ScoringConfig
}

// DatabaseConfig contains database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string
}

// RedisConfig contains the optional redis leaderboard cache settings.
type RedisConfig struct {
	URL string
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC secret for dashboard token validation.
	JWTSecret string
}

// ScoringConfig contains engine tunables.
type ScoringConfig struct {
	// SnapshotTTL bounds staleness of the monthly snapshot cache.
	SnapshotTTL time.Duration

	// RefreshInterval is how often the leaderboard worker recomputes
	// the current month.
	RefreshInterval time.Duration

	// OperatorConcurrency bounds the per-operator fan-out during a
	// leaderboard pass.
	OperatorConcurrency int
}

// ConnectionString returns the postgres connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
		c.Schema,
	)
}

// Load reads configuration from environment variables.
// loads .env file if present, but doesn't fail if it's missing.
func Load() (*Config, error) {
	// try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}

	return &Config{
		Database: dbConfig,
		Redis:    RedisConfig{URL: os.Getenv("REDIS_URL")},
		Auth:     authConfig,
		Scoring:  loadScoringConfig(),
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	config := AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if config.JWTSecret == "" {
		return config, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "require"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "scoreboard"),
	}

	// required fields must be set
	if config.User == "" {
		return config, errors.New("DB_USER is required")
	}
	if config.Password == "" {
		return config, errors.New("DB_PASSWORD is required")
	}
	if config.Name == "" {
		return config, errors.New("DB_NAME is required")
	}

	return config, nil
}

func loadScoringConfig() ScoringConfig {
	return ScoringConfig{
		SnapshotTTL:         getDurationOrDefault("SNAPSHOT_TTL", 60*time.Second),
		RefreshInterval:     getDurationOrDefault("LEADERBOARD_REFRESH_INTERVAL", 5*time.Minute),
		OperatorConcurrency: getIntOrDefault("OPERATOR_CONCURRENCY", 8),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
