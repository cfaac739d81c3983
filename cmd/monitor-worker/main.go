package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/emergency"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	"github.com/bravo6co-debug/buzz-backend/internal/monitor"
	"github.com/bravo6co-debug/buzz-backend/pkg/config"
	"github.com/bravo6co-debug/buzz-backend/pkg/db"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
	"github.com/bravo6co-debug/buzz-backend/pkg/metrics"
	"github.com/bravo6co-debug/buzz-backend/pkg/migrate"
	"github.com/bravo6co-debug/buzz-backend/pkg/pubsub"
	"github.com/bravo6co-debug/buzz-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "monitor-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "monitor-worker"

	logg = logger.New(logger.Options{
		ServiceName: "monitor-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var alerts audit.AlertPublisher
	if cfg.GCP.ProjectID != "" && cfg.PubSub.AlertTopic != "" {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		alerts = psClient
	} else {
		logg.Warn(context.Background(), "pubsub alerting disabled, no project or topic configured")
	}

	auditService, err := audit.NewService(audit.ServiceParams{
		Repo:   audit.NewRepository(dbClient.DB()),
		Alerts: alerts,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	emergencyRepo := emergency.NewRepository(dbClient.DB())
	if err := emergencyRepo.EnsureDefaults(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to seed emergency controls", err)
		os.Exit(1)
	}
	emergencyService, err := emergency.NewService(emergency.ServiceParams{
		Repo:    emergencyRepo,
		Auditor: auditService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create emergency service", err)
		os.Exit(1)
	}

	budgetService, err := budget.NewService(budget.ServiceParams{
		Repo:     budget.NewRepository(dbClient.DB()),
		Auditor:  auditService,
		Logger:   logg,
		Defaults: cfg.Budget,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create budget service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	evaluator, err := monitor.NewEvaluator(monitor.EvaluatorParams{
		Ledger:   ledgerService,
		Settings: budgetService,
		Breakers: emergencyService,
		Auditor:  auditService,
		Logger:   logg,
		Metrics:  metrics.NewMonitorMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create budget evaluator", err)
		os.Exit(1)
	}
	budget.SetReevaluator(budgetService, evaluator)

	lock, err := monitor.NewRedisLock(redisClient, redisClient.LockKey("budget_monitor"), cfg.Monitor.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create monitor lock", err)
		os.Exit(1)
	}

	service, err := monitor.NewService(monitor.ServiceParams{
		Logger:    logg,
		Evaluator: evaluator,
		Lock:      lock,
		Interval:  cfg.Monitor.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create monitor service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting budget monitor worker")

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.App.Port, mux); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "budget monitor stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "budget monitor shutting down gracefully")
}
