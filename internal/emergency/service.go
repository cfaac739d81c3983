package emergency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
)

// SystemActor marks transitions performed by the budget monitor rather
// than a human operator.
const SystemActor = "system"

// Service is the emergency kill-switch registry. One control exists per
// event category; arming is idempotent and every transition is audited.
type Service interface {
	Arm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error)
	Disarm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error)
	List(ctx context.Context) ([]models.EmergencyControl, error)
	IsEnabled(ctx context.Context, category enums.EventCategory) (bool, error)
}

type service struct {
	repo    Repository
	auditor audit.Service
	now     func() time.Time

	mu     sync.RWMutex
	cache  map[enums.EventCategory]models.EmergencyControl
	loaded bool
}

// controlState is the audited before/after shape for a breaker transition.
type controlState struct {
	Enabled bool    `json:"enabled"`
	ArmedBy *string `json:"armed_by,omitempty"`
}

// ServiceParams wires emergency registry dependencies.
type ServiceParams struct {
	Repo    Repository
	Auditor audit.Service
}

// NewService wires the emergency control registry. The control cache is
// hydrated lazily on first read or transition.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "emergency repository required")
	}
	if params.Auditor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "emergency auditor required")
	}
	return &service{
		repo:    params.Repo,
		auditor: params.Auditor,
		now:     time.Now,
		cache:   make(map[enums.EventCategory]models.EmergencyControl),
	}, nil
}

func (s *service) Arm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
	return s.transition(ctx, category, actor, true)
}

func (s *service) Disarm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
	return s.transition(ctx, category, actor, false)
}

func (s *service) transition(ctx context.Context, category enums.EventCategory, actor string, enable bool) (*models.EmergencyControl, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid event category %q", category))
	}
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	control, ok := s.cache[category]
	s.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no emergency control for category %q", category))
	}

	before := controlState{Enabled: control.Enabled, ArmedBy: control.ArmedBy}

	if enable {
		// Re-arming refreshes attribution so the audit trail names the
		// most recent operator.
		now := s.now().UTC()
		control.Enabled = true
		control.ArmedAt = &now
		control.ArmedBy = &actor
	} else {
		if !control.Enabled {
			return &control, nil
		}
		control.Enabled = false
		control.ArmedAt = nil
		control.ArmedBy = nil
	}

	if err := s.repo.Update(ctx, &control); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist emergency control")
	}

	s.mu.Lock()
	s.cache[category] = control
	s.mu.Unlock()

	action := enums.AuditActionControlDisarmed
	severity := enums.AuditSeverityInfo
	if enable {
		action = enums.AuditActionControlArmed
		severity = enums.AuditSeverityWarning
	}
	s.auditor.Record(ctx, audit.RecordInput{
		Actor:    actor,
		Action:   action,
		Subject:  "emergency_control:" + string(category),
		Before:   before,
		After:    controlState{Enabled: control.Enabled, ArmedBy: control.ArmedBy},
		Severity: severity,
	})

	return &control, nil
}

func (s *service) List(ctx context.Context) ([]models.EmergencyControl, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	controls := make([]models.EmergencyControl, 0, len(s.cache))
	for _, category := range enums.AllEventCategories() {
		if control, ok := s.cache[category]; ok {
			controls = append(controls, control)
		}
	}
	return controls, nil
}

func (s *service) IsEnabled(ctx context.Context, category enums.EventCategory) (bool, error) {
	if !category.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid event category %q", category))
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	control, ok := s.cache[category]
	if !ok {
		return false, nil
	}
	return control.Enabled, nil
}

func (s *service) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	controls, err := s.repo.List(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load emergency controls")
	}

	s.mu.Lock()
	if !s.loaded {
		for _, control := range controls {
			s.cache[control.Category] = control
		}
		s.loaded = true
	}
	s.mu.Unlock()
	return nil
}
