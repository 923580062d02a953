package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/auth"
	"github.com/arenaops/scoreboard/internal/infrastructure/cache"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
	"github.com/arenaops/scoreboard/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
type RouterConfig struct {
	ScoreUseCase       *application.ScoreOperatorUseCase
	LeaderboardUseCase *application.LeaderboardUseCase
	BattleUseCase      *application.BattleScoreUseCase
	SubscriptionRepo   domain.WebhookSubscriptionRepository
	Rankings           *cache.RedisClient
	DBHealth           HealthChecker
	JWTValidator       *auth.JWTValidator
	Logger             *logging.Logger
	Metrics            *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// follows RESTful conventions and groups routes logically.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		// apply metrics middleware to all routes
		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.DBHealth)

	// api v1 group with auth
	v1 := e.Group("/api/v1")

	authConfig := AuthConfig{
		JWTValidator: config.JWTValidator,
		Skipper: PublicRoutesSkipper(
			"/health",
			"/ready",
		),
	}

	// reads are open to anonymous callers; write endpoints check the
	// claims themselves
	v1.Use(OptionalAuthMiddleware(authConfig))

	if config.ScoreUseCase != nil {
		scoreHandler := NewScoreHandler(config.ScoreUseCase)
		scoreHandler.RegisterRoutes(v1)
	}

	if config.LeaderboardUseCase != nil {
		leaderboardHandler := NewLeaderboardHandler(config.LeaderboardUseCase).
			WithRankings(config.Rankings)
		leaderboardHandler.RegisterRoutes(v1)
	}

	if config.BattleUseCase != nil {
		battleHandler := NewBattleHandler(config.BattleUseCase)
		battleHandler.RegisterRoutes(v1)
	}

	if config.SubscriptionRepo != nil {
		subscriptionHandler := NewSubscriptionHandler(config.SubscriptionRepo)
		subscriptionHandler.RegisterRoutes(v1)
	}

	metricsEnabled := config.Metrics != nil
	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", metricsEnabled,
		"api_prefix", "/api/v1",
	)
}
