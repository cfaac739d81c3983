package emergency

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

// Repository manages persistence for emergency controls.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.EmergencyControl, error)
	Update(ctx context.Context, control *models.EmergencyControl) error
	EnsureDefaults(ctx context.Context) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an emergency control repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.EmergencyControl, error) {
	var controls []models.EmergencyControl
	if err := r.db.WithContext(ctx).
		Order("category ASC").
		Find(&controls).Error; err != nil {
		return nil, err
	}
	return controls, nil
}

func (r *repository) Update(ctx context.Context, control *models.EmergencyControl) error {
	return r.db.WithContext(ctx).
		Model(control).
		Select("enabled", "armed_at", "armed_by", "updated_at").
		Updates(control).Error
}

// EnsureDefaults creates the one-row-per-category registry if missing.
// Migrations seed production; this covers fresh sqlite databases in dev.
func (r *repository) EnsureDefaults(ctx context.Context) error {
	defaults := []models.EmergencyControl{
		{Category: enums.EventCategoryAllEvents, Name: "Global stop", Description: "Blocks every reward and spend event regardless of category"},
		{Category: enums.EventCategoryNewSignups, Name: "Signup rewards", Description: "Blocks signup reward issuance"},
		{Category: enums.EventCategoryReferralRewards, Name: "Referral rewards", Description: "Blocks referral reward issuance"},
		{Category: enums.EventCategoryQREvents, Name: "QR events", Description: "Blocks QR scan reward issuance"},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoNothing: true,
		}).
		Create(&defaults).Error
}
