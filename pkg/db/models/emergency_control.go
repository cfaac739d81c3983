package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

// EmergencyControl is a named breaker; exactly one row exists per category.
// armed_by records "system" for automatic arming, an operator id otherwise.
type EmergencyControl struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category    enums.EventCategory `gorm:"column:category;type:event_category;not null;uniqueIndex"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description"`
	Enabled     bool                `gorm:"column:enabled;not null;default:false"`
	ArmedAt     *time.Time          `gorm:"column:armed_at"`
	ArmedBy     *string             `gorm:"column:armed_by"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (EmergencyControl) TableName() string { return "emergency_controls" }
