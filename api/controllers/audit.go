package controllers

import (
	"net/http"
	"strings"

	"github.com/bravo6co-debug/buzz-backend/api/responses"
	"github.com/bravo6co-debug/buzz-backend/api/validators"
	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
	"github.com/bravo6co-debug/buzz-backend/pkg/pagination"
)

// ListAuditEvents returns the audit trail, newest first.
func ListAuditEvents(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := audit.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
