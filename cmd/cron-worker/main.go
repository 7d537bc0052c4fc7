package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jarvis4everyone/subscription-backend/internal/cron"
	"github.com/jarvis4everyone/subscription-backend/internal/refreshtokens"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/metrics"
	"github.com/jarvis4everyone/subscription-backend/pkg/migrate"
	"github.com/jarvis4everyone/subscription-backend/pkg/redis"
)

const metricsAddr = ":9090"

// cron-worker expires lapsed subscriptions and prunes refresh tokens. By
// default it loops forever; -once runs a single cycle and -job a single sweep.
func main() {
	once := flag.Bool("once", false, "run one cycle and exit")
	only := flag.String("job", "", "run only the named job once and exit")
	flag.Parse()

	boot := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "interval": cfg.Cron.Interval.String()})

	if err := run(ctx, cfg, logg, *once, *only); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool, only string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeWith(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeWith(ctx, logg, "redis", redisClient.Close)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, err := buildService(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		return err
	}

	switch {
	case only != "":
		return service.RunJob(ctx, only)
	case once:
		return service.RunOnce(ctx)
	}

	if cfg.FeatureFlags.MetricsEnabled {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer srv.Close()
	}

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (*cron.Service, error) {
	subs, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           metrics.NewPaymentMetrics(reg),
	})
	if err != nil {
		return nil, fmt.Errorf("subscription service: %w", err)
	}
	expiry, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:        logg,
		Subscriptions: subs,
		BatchSize:     cfg.Cron.ExpiryBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("subscription expiry job: %w", err)
	}
	cleanup, err := cron.NewRefreshTokenCleanupJob(cron.RefreshTokenCleanupJobParams{
		Logger: logg,
		Tokens: refreshtokens.NewRepository(dbClient.DB()),
	})
	if err != nil {
		return nil, fmt.Errorf("refresh token cleanup job: %w", err)
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName), lockTTL(cfg.Cron.Interval))
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiry, cleanup),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
}

// lockTTL keeps the lock past one cycle but well short of the next tick.
func lockTTL(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 30 * time.Minute
	}
	return max(interval/2, time.Minute)
}

func closeWith(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+what, err)
	}
}
