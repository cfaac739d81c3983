package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

// EventDTO is the transport shape of one audit row.
type EventDTO struct {
	ID         uuid.UUID           `json:"id"`
	Actor      string              `json:"actor"`
	Action     enums.AuditAction   `json:"action"`
	Subject    string              `json:"subject"`
	Before     json.RawMessage     `json:"before,omitempty"`
	After      json.RawMessage     `json:"after,omitempty"`
	Severity   enums.AuditSeverity `json:"severity"`
	OccurredAt time.Time           `json:"occurred_at"`
}

func FromModel(e *models.AuditEvent) *EventDTO {
	if e == nil {
		return nil
	}

	return &EventDTO{
		ID:         e.ID,
		Actor:      e.Actor,
		Action:     e.Action,
		Subject:    e.Subject,
		Before:     e.Before,
		After:      e.After,
		Severity:   e.Severity,
		OccurredAt: e.OccurredAt,
	}
}

func FromModels(events []models.AuditEvent) []EventDTO {
	items := make([]EventDTO, 0, len(events))
	for i := range events {
		items = append(items, *FromModel(&events[i]))
	}
	return items
}
