package ledger

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
)

// Repository manages persistence for usage ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, entry *models.UsageLedgerEntry) error
	ListMonth(ctx context.Context, month string) ([]models.UsageLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, entry *models.UsageLedgerEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"daily_used", "month_running_total", "updated_at"}),
		}).
		Create(entry).Error
}

func (r *repository) ListMonth(ctx context.Context, month string) ([]models.UsageLedgerEntry, error) {
	var entries []models.UsageLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("day LIKE ?", month+"-%").
		Order("day ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
