package enums

import "fmt"

// AuditAction identifies the kind of audited state change.
type AuditAction string

const (
	AuditActionControlArmed    AuditAction = "control_armed"
	AuditActionControlDisarmed AuditAction = "control_disarmed"
	AuditActionSettingsUpdated AuditAction = "settings_updated"
	AuditActionBudgetBreached  AuditAction = "budget_breached"
	AuditActionBudgetWarning   AuditAction = "budget_warning"
)

var validAuditActions = []AuditAction{
	AuditActionControlArmed,
	AuditActionControlDisarmed,
	AuditActionSettingsUpdated,
	AuditActionBudgetBreached,
	AuditActionBudgetWarning,
}

// IsValid reports whether the value matches the canonical action enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
