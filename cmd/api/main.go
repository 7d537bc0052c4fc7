package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jarvis4everyone/subscription-backend/api/routes"
	"github.com/jarvis4everyone/subscription-backend/internal/auth"
	"github.com/jarvis4everyone/subscription-backend/internal/contacts"
	"github.com/jarvis4everyone/subscription-backend/internal/download"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	"github.com/jarvis4everyone/subscription-backend/internal/refreshtokens"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	razorpaywebhook "github.com/jarvis4everyone/subscription-backend/internal/webhooks/razorpay"
	"github.com/jarvis4everyone/subscription-backend/pkg/auth/session"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/metrics"
	"github.com/jarvis4everyone/subscription-backend/pkg/migrate"
	"github.com/jarvis4everyone/subscription-backend/pkg/razorpay"
	"github.com/jarvis4everyone/subscription-backend/pkg/redis"
	"github.com/jarvis4everyone/subscription-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; rate limits and webhook dedupe disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	conn := dbClient.DB()
	sessions, err := session.NewManager(refreshtokens.NewRepository(conn), cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create subscription service", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(conn)
	userService, err := users.NewService(users.ServiceParams{
		Repo:              userRepo,
		Subscriptions:     subscriptionService,
		Sessions:          sessions,
		TransactionRunner: dbClient,
		PasswordConfig:    cfg.Password,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userService,
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	gateway := payments.NewRazorpayGateway(razorpay.NewClient(cfg.Razorpay), cfg.Razorpay.OrderNote)
	if !cfg.Razorpay.Configured() {
		logg.Warn(ctx, "razorpay credentials missing; order creation will fail")
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:              payments.NewRepository(conn),
		Gateway:           gateway,
		Subscriptions:     subscriptionService,
		TransactionRunner: dbClient,
		Config:            cfg.Subscription,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create payment service", err)
		os.Exit(1)
	}

	var deliveries *razorpaywebhook.DeliveryLog
	if redisClient != nil {
		deliveries, err = razorpaywebhook.NewDeliveryLog(redisClient, cfg.Razorpay.WebhookDedupe, "razorpay")
		if err != nil {
			logg.Error(ctx, "failed to create webhook delivery log", err)
			os.Exit(1)
		}
	}
	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Payments:   paymentService,
		Verifier:   gateway,
		Deliveries: deliveries,
		Logger:     logg,
		Metrics:    paymentMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	contactService, err := contacts.NewService(contacts.NewRepository(conn), logg)
	if err != nil {
		logg.Error(ctx, "failed to create contact service", err)
		os.Exit(1)
	}

	source, err := storage.New(ctx, cfg.Download, logg)
	if err != nil {
		logg.Error(ctx, "failed to create download source", err)
		os.Exit(1)
	}
	downloadService, err := download.NewService(subscriptionService, source, cfg.Download.FileName, logg)
	if err != nil {
		logg.Error(ctx, "failed to create download service", err)
		os.Exit(1)
	}

	var metricsHandler http.Handler
	if cfg.FeatureFlags.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Auth:          authService,
			Users:         userService,
			Subscriptions: subscriptionService,
			Payments:      paymentService,
			Webhook:       webhookService,
			Contacts:      contactService,
			Download:      downloadService,
			Metrics:       metricsHandler,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}
