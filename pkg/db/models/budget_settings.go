package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetSettings is the singleton row holding the monthly/daily ceilings and
// the automatic kill-switch thresholds. Version backs optimistic updates.
type BudgetSettings struct {
	ID               int             `gorm:"column:id;primaryKey"`
	MonthlyBudget    decimal.Decimal `gorm:"column:monthly_budget;type:numeric(14,2);not null"`
	DailyLimit       decimal.Decimal `gorm:"column:daily_limit;type:numeric(14,2);not null"`
	WarningThreshold int             `gorm:"column:warning_threshold;not null;default:80"`
	AutoBlockEnabled bool            `gorm:"column:auto_block_enabled;not null;default:true"`
	Version          int             `gorm:"column:version;not null;default:1"`
	UpdatedBy        string          `gorm:"column:updated_by"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular-free naming used across the schema.
func (BudgetSettings) TableName() string { return "budget_settings" }
