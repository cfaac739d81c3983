package budget

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
)

// Repository manages persistence for the singleton budget settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.BudgetSettings, error)
	EnsureDefaults(ctx context.Context, settings *models.BudgetSettings) error
	UpdateVersioned(ctx context.Context, settings *models.BudgetSettings, expectedVersion int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a budget settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context) (*models.BudgetSettings, error) {
	var settings models.BudgetSettings
	err := r.db.WithContext(ctx).First(&settings, settingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) EnsureDefaults(ctx context.Context, settings *models.BudgetSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(settings).Error
}

// UpdateVersioned applies the row only when the stored version still matches.
// A false return means another writer got there first.
func (r *repository) UpdateVersioned(ctx context.Context, settings *models.BudgetSettings, expectedVersion int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BudgetSettings{}).
		Where("id = ? AND version = ?", settingsID, expectedVersion).
		Updates(map[string]any{
			"monthly_budget":     settings.MonthlyBudget,
			"daily_limit":        settings.DailyLimit,
			"warning_threshold":  settings.WarningThreshold,
			"auto_block_enabled": settings.AutoBlockEnabled,
			"updated_by":         settings.UpdatedBy,
			"version":            expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
