package enums

import "fmt"

// AuditSeverity grades audit events; critical events are also pushed to the
// alert topic so operators see them without polling.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

var validAuditSeverities = []AuditSeverity{
	AuditSeverityInfo,
	AuditSeverityWarning,
	AuditSeverityCritical,
}

// IsValid reports whether the value matches the canonical severity enum.
func (s AuditSeverity) IsValid() bool {
	for _, candidate := range validAuditSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAuditSeverity converts raw input into AuditSeverity.
func ParseAuditSeverity(value string) (AuditSeverity, error) {
	for _, candidate := range validAuditSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit severity %q", value)
}
