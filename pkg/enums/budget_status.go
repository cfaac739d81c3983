package enums

import "fmt"

// BudgetStatus classifies a usage snapshot against the configured ceilings.
type BudgetStatus string

const (
	BudgetStatusNormal   BudgetStatus = "normal"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusExceeded BudgetStatus = "exceeded"
	BudgetStatusBlocked  BudgetStatus = "blocked"
)

var validBudgetStatuses = []BudgetStatus{
	BudgetStatusNormal,
	BudgetStatusWarning,
	BudgetStatusExceeded,
	BudgetStatusBlocked,
}

// IsValid reports whether the value matches the canonical status enum.
func (s BudgetStatus) IsValid() bool {
	for _, candidate := range validBudgetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBudgetStatus converts raw input into BudgetStatus.
func ParseBudgetStatus(value string) (BudgetStatus, error) {
	for _, candidate := range validBudgetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid budget status %q", value)
}
