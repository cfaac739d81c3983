package enums

import "fmt"

// DenyReason explains why an admission decision rejected an event. A denial
// is a normal decision outcome, not an error; callers branch on these codes.
type DenyReason string

const (
	DenyReasonEmergencyGlobal   DenyReason = "EMERGENCY_GLOBAL"
	DenyReasonEmergencyCategory DenyReason = "EMERGENCY_CATEGORY"
	DenyReasonDailyLimit        DenyReason = "DAILY_LIMIT"
	DenyReasonMonthlyBudget     DenyReason = "MONTHLY_BUDGET"
)

var validDenyReasons = []DenyReason{
	DenyReasonEmergencyGlobal,
	DenyReasonEmergencyCategory,
	DenyReasonDailyLimit,
	DenyReasonMonthlyBudget,
}

// IsValid reports whether the value matches the canonical reason enum.
func (r DenyReason) IsValid() bool {
	for _, candidate := range validDenyReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseDenyReason converts raw input into DenyReason.
func ParseDenyReason(value string) (DenyReason, error) {
	for _, candidate := range validDenyReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deny reason %q", value)
}
