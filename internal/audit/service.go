package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
	"github.com/bravo6co-debug/buzz-backend/pkg/pagination"
)

// AlertPublisher pushes high-severity events to the operator alert topic.
// A nil publisher disables alerting without disabling the audit trail.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, payload []byte, attributes map[string]string) error
}

// Service records audited state changes and serves the admin audit screen.
// Record never fails the caller; audit is observability, not control flow.
type Service interface {
	Record(ctx context.Context, input RecordInput)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo   Repository
	alerts AlertPublisher
	log    *logger.Logger
	now    func() time.Time
}

// RecordInput captures one audited state change. Before and After are
// marshalled to JSON as-is; nil means "no prior/next state".
type RecordInput struct {
	Actor    string
	Action   enums.AuditAction
	Subject  string
	Before   any
	After    any
	Severity enums.AuditSeverity
}

// ListParams configures pagination for the audit screen.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps returned events and the cursor for the next page.
type ListResult struct {
	Items  []EventDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

// ServiceParams wires audit dependencies. Alerts may be nil.
type ServiceParams struct {
	Repo   Repository
	Alerts AlertPublisher
	Logger *logger.Logger
}

// NewService wires the audit log service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit logger required")
	}
	return &service{
		repo:   params.Repo,
		alerts: params.Alerts,
		log:    params.Logger,
		now:    time.Now,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) {
	if input.Actor == "" || !input.Action.IsValid() {
		s.log.Error(ctx, "dropping malformed audit event", pkgerrors.New(pkgerrors.CodeValidation, "actor and action required"))
		return
	}
	severity := input.Severity
	if !severity.IsValid() {
		severity = enums.AuditSeverityInfo
	}

	event := &models.AuditEvent{
		Actor:      input.Actor,
		Action:     input.Action,
		Subject:    input.Subject,
		Before:     marshalState(ctx, s.log, input.Before),
		After:      marshalState(ctx, s.log, input.After),
		Severity:   severity,
		OccurredAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.log.Error(ctx, "persist audit event", err)
	}

	if severity == enums.AuditSeverityCritical && s.alerts != nil {
		s.publishAlert(ctx, event)
	}
}

func (s *service) publishAlert(ctx context.Context, event *models.AuditEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error(ctx, "encode audit alert", err)
		return
	}
	attributes := map[string]string{
		"action":   string(event.Action),
		"severity": string(event.Severity),
	}
	if err := s.alerts.PublishAlert(ctx, payload, attributes); err != nil {
		s.log.Error(ctx, "publish audit alert", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listAuditEventsParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit events")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: FromModels(rows), Cursor: cursor}, nil
}

func marshalState(ctx context.Context, log *logger.Logger, state any) json.RawMessage {
	if state == nil {
		return nil
	}
	if raw, ok := state.(json.RawMessage); ok {
		return raw
	}
	data, err := json.Marshal(state)
	if err != nil {
		log.Error(ctx, "encode audit state", err)
		return nil
	}
	return data
}
