package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/api"
	"github.com/rentalqa/backend/internal/cache"
	"github.com/rentalqa/backend/internal/cache/memory"
	"github.com/rentalqa/backend/internal/cache/redis"
	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/internal/middleware/ratelimit"
	"github.com/rentalqa/backend/internal/query"
	"github.com/rentalqa/backend/internal/seed"
	"github.com/rentalqa/backend/internal/storage/sqlite"
	"github.com/rentalqa/backend/internal/submission"
	"github.com/rentalqa/backend/pkg/config"
	appLogger "github.com/rentalqa/backend/pkg/logger"
	"github.com/rentalqa/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RentalQA API Server")

	metrics.Init()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	startup := retry.DefaultConfig()
	startup.MaxAttempts = 5
	startup.Logger = appLogger.Log

	sqliteRetry := startup
	sqliteRetry.Name = "sqlite-ping"
	sqliteRetry.Transient = sqlite.IsTransient
	if err := retry.Do(ctx, sqliteRetry, sqliteClient.Ping); err != nil {
		appLogger.Fatal("SQLite is not reachable", zap.Error(err))
	}

	if err := sqliteClient.InitSchema(ctx); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	backend, closeBackend := newCacheBackend(ctx, cfg, startup)
	defer closeBackend()

	questionCache := cache.New(backend, cfg.Cache.TTL())
	queryEngine := query.NewEngine(sqliteClient, questionCache)
	processor := submission.NewProcessor(sqliteClient, questionCache, submission.LogNotifier{})

	if cfg.Seed.Enabled {
		seeded, err := seed.NewSeeder(sqliteClient).Run(ctx)
		if err != nil {
			appLogger.Warn("Failed to seed sample questions", zap.Error(err))
		}
		if seeded > 0 {
			if err := questionCache.Invalidate(ctx, query.CacheKey); err != nil {
				appLogger.Warn("Failed to invalidate question cache after seeding", zap.Error(err))
			}
		}
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	app := api.NewApp(cfg.Server, api.Deps{
		Questions: queryEngine,
		Submitter: processor,
		Store:     sqliteClient,
		Limiter:   limiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.String("cache_backend", backend.Name()),
		zap.Duration("cache_ttl", cfg.Cache.TTL()),
	)

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	if processor.Pending() {
		appLogger.Warn("Shutting down with submissions still in flight")
	}
	appLogger.Info("Server stopped")
}

func newCacheBackend(ctx context.Context, cfg *config.Config, startup retry.Config) (cache.Backend, func()) {
	if cfg.Cache.Backend != "redis" {
		return memory.New(), func() {}
	}

	startup.Name = "redis-connect"
	startup.Transient = redis.IsTransient
	client, err := retry.DoWithResult(ctx, startup, func(ctx context.Context) (*redis.Client, error) {
		return redis.NewClient(ctx, redis.Config{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	return client, func() {
		if err := client.Close(); err != nil {
			appLogger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
}
