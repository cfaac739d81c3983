package emergency

import (
	"time"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
)

// ControlDTO is the transport shape of one breaker.
type ControlDTO struct {
	Category    enums.EventCategory `json:"category"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Enabled     bool                `json:"enabled"`
	ArmedAt     *time.Time          `json:"armed_at,omitempty"`
	ArmedBy     *string             `json:"armed_by,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func FromModel(c *models.EmergencyControl) *ControlDTO {
	if c == nil {
		return nil
	}

	return &ControlDTO{
		Category:    c.Category,
		Name:        c.Name,
		Description: c.Description,
		Enabled:     c.Enabled,
		ArmedAt:     c.ArmedAt,
		ArmedBy:     c.ArmedBy,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromModels(controls []models.EmergencyControl) []ControlDTO {
	items := make([]ControlDTO, 0, len(controls))
	for i := range controls {
		items = append(items, *FromModel(&controls[i]))
	}
	return items
}
