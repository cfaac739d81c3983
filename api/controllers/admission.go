package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/api/responses"
	"github.com/bravo6co-debug/buzz-backend/api/validators"
	"github.com/bravo6co-debug/buzz-backend/internal/admission"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

type decideRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Category string          `json:"category" validate:"required"`
}

// Decide runs one spend event through the admission rules. A denial is an
// HTTP 200 carrying admitted=false; only dependency failures surface as errors.
func Decide(svc admission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admission service unavailable"))
			return
		}

		var req decideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseEventCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		decision, err := svc.Decide(r.Context(), admission.DecideInput{
			Amount:   req.Amount,
			Category: category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, decision)
	}
}
