package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bravo6co-debug/buzz-backend/api/routes"
	"github.com/bravo6co-debug/buzz-backend/internal/admission"
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

	admissionService, err := admission.NewService(admission.ServiceParams{
		Ledger:    ledgerService,
		Settings:  budgetService,
		Emergency: emergencyService,
		Metrics:   metrics.NewAdmissionMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admission service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Limiter:   redisClient,
			Admission: admissionService,
			Budget:    budgetService,
			Ledger:    ledgerService,
			Emergency: emergencyService,
			Audit:     auditService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
