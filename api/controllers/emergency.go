package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bravo6co-debug/buzz-backend/api/middleware"
	"github.com/bravo6co-debug/buzz-backend/api/responses"
	"github.com/bravo6co-debug/buzz-backend/internal/emergency"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

// ListEmergencyControls returns every breaker with its armed state.
func ListEmergencyControls(svc emergency.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "emergency service unavailable"))
			return
		}

		controls, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, emergency.FromModels(controls))
	}
}

// ArmEmergencyControl trips the breaker for the category in the URL.
func ArmEmergencyControl(svc emergency.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc emergency.Service, r *http.Request, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
		return svc.Arm(r.Context(), category, actor)
	})
}

// DisarmEmergencyControl releases the breaker for the category in the URL.
func DisarmEmergencyControl(svc emergency.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc emergency.Service, r *http.Request, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
		return svc.Disarm(r.Context(), category, actor)
	})
}

func transitionHandler(
	svc emergency.Service,
	logg *logger.Logger,
	apply func(svc emergency.Service, r *http.Request, category enums.EventCategory, actor string) (*models.EmergencyControl, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "emergency service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing from token"))
			return
		}

		category, err := enums.ParseEventCategory(chi.URLParam(r, "category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		control, err := apply(svc, r, category, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, emergency.FromModel(control))
	}
}
