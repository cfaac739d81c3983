package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
)

// SettingsDTO is the transport shape of the budget configuration.
type SettingsDTO struct {
	MonthlyBudget    decimal.Decimal `json:"monthly_budget"`
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	WarningThreshold int             `json:"warning_threshold"`
	AutoBlockEnabled bool            `json:"auto_block_enabled"`
	Version          int             `json:"version"`
	UpdatedBy        string          `json:"updated_by,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func SettingsFromModel(s *models.BudgetSettings) *SettingsDTO {
	if s == nil {
		return nil
	}

	return &SettingsDTO{
		MonthlyBudget:    s.MonthlyBudget,
		DailyLimit:       s.DailyLimit,
		WarningThreshold: s.WarningThreshold,
		AutoBlockEnabled: s.AutoBlockEnabled,
		Version:          s.Version,
		UpdatedBy:        s.UpdatedBy,
		UpdatedAt:        s.UpdatedAt,
	}
}
