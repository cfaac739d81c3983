package enums

import "fmt"

// EventCategory maps to the event_category enum in Postgres. Each reward or
// spend event carries one; emergency controls are scoped by the same values.
type EventCategory string

const (
	EventCategoryAllEvents       EventCategory = "all_events"
	EventCategoryNewSignups      EventCategory = "new_signups"
	EventCategoryReferralRewards EventCategory = "referral_rewards"
	EventCategoryQREvents        EventCategory = "qr_events"
)

var validEventCategories = []EventCategory{
	EventCategoryAllEvents,
	EventCategoryNewSignups,
	EventCategoryReferralRewards,
	EventCategoryQREvents,
}

// AllEventCategories returns every category in canonical order.
func AllEventCategories() []EventCategory {
	out := make([]EventCategory, len(validEventCategories))
	copy(out, validEventCategories)
	return out
}

// IsValid reports whether the value matches the canonical category enum.
func (c EventCategory) IsValid() bool {
	for _, candidate := range validEventCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseEventCategory converts raw input into EventCategory.
func ParseEventCategory(value string) (EventCategory, error) {
	for _, candidate := range validEventCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event category %q", value)
}
