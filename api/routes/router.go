package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bravo6co-debug/buzz-backend/api/controllers"
	"github.com/bravo6co-debug/buzz-backend/api/middleware"
	"github.com/bravo6co-debug/buzz-backend/internal/admission"
	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/emergency"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	"github.com/bravo6co-debug/buzz-backend/pkg/config"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Limiter   middleware.RateLimiterStore
	Admission admission.Service
	Budget    budget.Service
	Ledger    ledger.Service
	Emergency emergency.Service
	Audit     audit.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    params.DB,
			"redis": params.Redis,
		}))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		decidePolicy := middleware.NewRateLimitPolicy("decide", cfg.RateLimit.DecideWindow, cfg.RateLimit.DecidePerIP)
		r.With(middleware.RateLimit(decidePolicy, params.Limiter, logg)).
			Post("/admission/decide", controllers.Decide(params.Admission, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireAdmin(logg),
		)

		r.Get("/ping", controllers.AdminPing())

		r.Route("/budget", func(r chi.Router) {
			r.Get("/settings", controllers.GetBudgetSettings(params.Budget, logg))
			r.Patch("/settings", controllers.UpdateBudgetSettings(params.Budget, logg))
			r.Get("/snapshot", controllers.GetBudgetSnapshot(params.Budget, params.Ledger, logg))
		})

		r.Route("/emergency-controls", func(r chi.Router) {
			r.Get("/", controllers.ListEmergencyControls(params.Emergency, logg))
			r.Post("/{category}/arm", controllers.ArmEmergencyControl(params.Emergency, logg))
			r.Post("/{category}/disarm", controllers.DisarmEmergencyControl(params.Emergency, logg))
		})

		r.Get("/audit-events", controllers.ListAuditEvents(params.Audit, logg))
	})

	return r
}
