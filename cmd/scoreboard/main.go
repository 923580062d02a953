package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/api"
	"github.com/arenaops/scoreboard/internal/infrastructure/auth"
	"github.com/arenaops/scoreboard/internal/infrastructure/cache"
	"github.com/arenaops/scoreboard/internal/infrastructure/config"
	"github.com/arenaops/scoreboard/internal/infrastructure/database"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
	"github.com/arenaops/scoreboard/internal/infrastructure/metrics"
	"github.com/arenaops/scoreboard/internal/infrastructure/postgres"
	"github.com/arenaops/scoreboard/internal/infrastructure/worker"
)

func main() {
	logger := logging.New()
	logger.Info("scoreboard starting up")

	if err := run(logger); err != nil {
		logger.Error("application failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *logging.Logger) error {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		return err
	}

	// establish database connection
	conn, err := database.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run migrations
	migrator := database.NewMigrator(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	// verify health after migrations
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Info("scoreboard infrastructure ready", "schema", conn.Schema())

	// initialize prometheus metrics
	appMetrics := metrics.New()
	logger.Info("prometheus metrics initialized")

	// initialize jwt validator
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories
	pool := conn.Pool()
	assignmentRepo := postgres.NewAssignmentRepository(pool)
	depositRepo := postgres.NewDepositEventRepository(pool)
	weightRepo := postgres.NewWeightRepository(pool)
	squadRepo := postgres.NewSquadRepository(pool)
	webhookSubRepo := postgres.NewWebhookSubscriptionRepository(pool)

	// initialize redis (optional - disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without cache", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis leaderboard cache enabled")
		}
	}

	// monthly snapshot cache shares one month-wide fetch across all
	// operator computations in a leaderboard pass
	snapshotCache := cache.NewMonthlySnapshotCache(
		assignmentRepo,
		depositRepo,
		cfg.Scoring.SnapshotTTL,
	).WithMetrics(appMetrics)

	// initialize use cases
	scoreUseCase := application.NewScoreOperatorUseCase(
		assignmentRepo,
		depositRepo,
		weightRepo,
		application.DefaultScoreConfig(),
		logger,
	).WithSnapshots(snapshotCache)

	leaderboardConfig := application.DefaultLeaderboardConfig()
	leaderboardConfig.OperatorConcurrency = cfg.Scoring.OperatorConcurrency

	leaderboardUseCase := application.NewLeaderboardUseCase(
		assignmentRepo,
		scoreUseCase,
		leaderboardConfig,
		logger,
	)
	if redisClient != nil {
		leaderboardUseCase = leaderboardUseCase.WithLeaderboard(redisClient)
	}

	battleUseCase := application.NewBattleScoreUseCase(
		assignmentRepo,
		depositRepo,
		squadRepo,
		domain.DefaultBattleConfig(),
		logger,
	)

	// start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())

	webhookWorker := worker.NewWebhookWorker(
		webhookSubRepo,
		worker.DefaultWebhookWorkerConfig(),
		logger,
	).WithMetrics(appMetrics)
	webhookWorker.Start(workerCtx)

	refreshWorker := worker.NewLeaderboardRefreshWorker(
		leaderboardUseCase,
		worker.LeaderboardRefreshConfig{Interval: cfg.Scoring.RefreshInterval},
		logger,
	).WithNotifier(webhookWorker).WithMetrics(appMetrics)
	refreshWorker.Start(workerCtx)

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		serverConfig.Port = ":" + port
	}

	server := api.NewServer(serverConfig, logger)

	// register routes
	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		ScoreUseCase:       scoreUseCase,
		LeaderboardUseCase: leaderboardUseCase,
		BattleUseCase:      battleUseCase,
		SubscriptionRepo:   webhookSubRepo,
		Rankings:           redisClient,
		DBHealth:           conn,
		JWTValidator:       jwtValidator,
		Logger:             logger,
		Metrics:            appMetrics,
	})

	// start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}()

	// wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("scoreboard shutting down")

	// stop background workers
	workerCancel()
	refreshWorker.Stop()

	// stop webhook worker and drain buffer
	webhookWorker.Stop()

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
		return err
	}

	logger.Info("scoreboard shutdown complete")
	return nil
}
