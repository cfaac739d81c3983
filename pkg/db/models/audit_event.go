package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

// AuditEvent is one immutable row per audited state change.
type AuditEvent struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Actor      string              `gorm:"column:actor;not null"`
	Action     enums.AuditAction   `gorm:"column:action;type:audit_action;not null"`
	Subject    string              `gorm:"column:subject;not null"`
	Before     json.RawMessage     `gorm:"column:before;type:jsonb"`
	After      json.RawMessage     `gorm:"column:after;type:jsonb"`
	Severity   enums.AuditSeverity `gorm:"column:severity;type:audit_severity;not null;default:'info'"`
	OccurredAt time.Time           `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (AuditEvent) TableName() string { return "audit_events" }
