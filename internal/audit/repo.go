package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/pagination"
)

// Repository exposes persistence helpers for audit events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.AuditEvent) error
	List(ctx context.Context, params listAuditEventsParams) ([]models.AuditEvent, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listAuditEventsParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, event *models.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listAuditEventsParams) ([]models.AuditEvent, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.AuditEvent{})
	// The cursor names the first row of the requested page, so it is inclusive.
	if params.Cursor != nil {
		query = query.Where("(occurred_at, id) <= (?, ?)", params.Cursor.Timestamp, params.Cursor.ID)
	}

	var events []models.AuditEvent
	if err := query.Order("occurred_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > normalized {
		next := events[normalized]
		events = events[:normalized]
		return events, &pagination.Cursor{Timestamp: next.OccurredAt, ID: next.ID}, nil
	}
	return events, nil, nil
}
