package budget

import (
	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// UsageSnapshot is the derived spend picture for one day, served to admins
// and attached to admission decisions.
type UsageSnapshot struct {
	Date             string             `json:"date"`
	DailyUsed        decimal.Decimal    `json:"daily_used"`
	DailyLimit       decimal.Decimal    `json:"daily_limit"`
	RemainingDaily   decimal.Decimal    `json:"remaining_daily"`
	TotalUsed        decimal.Decimal    `json:"total_used"`
	MonthlyBudget    decimal.Decimal    `json:"monthly_budget"`
	RemainingBudget  decimal.Decimal    `json:"remaining_budget"`
	WarningThreshold int                `json:"warning_threshold"`
	UsagePercentage  decimal.Decimal    `json:"usage_percentage"`
	Status           enums.BudgetStatus `json:"status"`
}

// ComputeSnapshot derives the remaining headroom and status classification
// for one day of usage under the given settings. Classification checks the
// hard daily ceiling first, then the monthly one, then the warning band.
func ComputeSnapshot(date string, usage ledger.Usage, settings *models.BudgetSettings) UsageSnapshot {
	snapshot := UsageSnapshot{
		Date:             date,
		DailyUsed:        usage.DailyUsed,
		DailyLimit:       settings.DailyLimit,
		RemainingDaily:   floorZero(settings.DailyLimit.Sub(usage.DailyUsed)),
		TotalUsed:        usage.MonthUsed,
		MonthlyBudget:    settings.MonthlyBudget,
		RemainingBudget:  floorZero(settings.MonthlyBudget.Sub(usage.MonthUsed)),
		WarningThreshold: settings.WarningThreshold,
		UsagePercentage:  usagePercentage(usage.MonthUsed, settings.MonthlyBudget),
	}

	switch {
	case usage.DailyUsed.GreaterThanOrEqual(settings.DailyLimit):
		snapshot.Status = enums.BudgetStatusBlocked
	case usage.MonthUsed.GreaterThanOrEqual(settings.MonthlyBudget):
		snapshot.Status = enums.BudgetStatusExceeded
	case snapshot.UsagePercentage.GreaterThanOrEqual(decimal.NewFromInt(int64(settings.WarningThreshold))):
		snapshot.Status = enums.BudgetStatusWarning
	default:
		snapshot.Status = enums.BudgetStatusNormal
	}
	return snapshot
}

func usagePercentage(used, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		if used.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return used.Div(budget).Mul(hundred).Round(2)
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
