package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/api/middleware"
	"github.com/bravo6co-debug/buzz-backend/api/responses"
	"github.com/bravo6co-debug/buzz-backend/api/validators"
	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

type updateSettingsRequest struct {
	MonthlyBudget    *decimal.Decimal `json:"monthly_budget"`
	DailyLimit       *decimal.Decimal `json:"daily_limit"`
	WarningThreshold *int             `json:"warning_threshold" validate:"omitempty,min=0,max=100"`
	AutoBlockEnabled *bool            `json:"auto_block_enabled"`
}

// GetBudgetSettings returns the current ceilings for the admin console.
func GetBudgetSettings(svc budget.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budget service unavailable"))
			return
		}

		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, budget.SettingsFromModel(settings))
	}
}

// UpdateBudgetSettings patches the singleton settings row. The acting
// operator comes from the verified token, never the body.
func UpdateBudgetSettings(svc budget.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budget service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing from token"))
			return
		}

		var req updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), budget.UpdatePatch{
			MonthlyBudget:    req.MonthlyBudget,
			DailyLimit:       req.DailyLimit,
			WarningThreshold: req.WarningThreshold,
			AutoBlockEnabled: req.AutoBlockEnabled,
		}, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, budget.SettingsFromModel(settings))
	}
}

// GetBudgetSnapshot serves the derived usage picture for a day, today by
// default.
func GetBudgetSnapshot(svc budget.Service, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budget service unavailable"))
			return
		}

		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		usage, err := ledgerSvc.Usage(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, budget.ComputeSnapshot(date, usage, settings))
	}
}
