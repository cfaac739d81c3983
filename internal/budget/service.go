package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/pkg/config"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

// settingsID pins the singleton row.
const settingsID = 1

const conflictRetryDelay = 25 * time.Millisecond

// Reevaluator triggers an immediate budget evaluation. The monitor
// implements it; settings updates call it so a lowered ceiling is enforced
// without waiting for the next interval tick.
type Reevaluator interface {
	RunOnce(ctx context.Context) error
}

// UpdatePatch carries the fields an operator wants to change. Nil means
// "leave as is".
type UpdatePatch struct {
	MonthlyBudget    *decimal.Decimal
	DailyLimit       *decimal.Decimal
	WarningThreshold *int
	AutoBlockEnabled *bool
}

// settingsState is the audited before/after shape for a settings change.
type settingsState struct {
	MonthlyBudget    decimal.Decimal `json:"monthly_budget"`
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	WarningThreshold int             `json:"warning_threshold"`
	AutoBlockEnabled bool            `json:"auto_block_enabled"`
}

// Service owns the singleton budget settings row.
type Service interface {
	Get(ctx context.Context) (*models.BudgetSettings, error)
	Update(ctx context.Context, patch UpdatePatch, actor string) (*models.BudgetSettings, error)
}

type service struct {
	repo     Repository
	auditor  audit.Service
	log      *logger.Logger
	defaults config.BudgetConfig

	reevalMu sync.RWMutex
	reeval   Reevaluator

	mu     sync.RWMutex
	cached *models.BudgetSettings
}

// ServiceParams wires settings store dependencies.
type ServiceParams struct {
	Repo     Repository
	Auditor  audit.Service
	Logger   *logger.Logger
	Defaults config.BudgetConfig
}

// NewService wires the budget settings store. The monitor hook is attached
// afterwards via SetReevaluator because the monitor itself reads settings
// through this service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "budget repository required")
	}
	if params.Auditor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "budget auditor required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "budget logger required")
	}
	return &service{
		repo:     params.Repo,
		auditor:  params.Auditor,
		log:      params.Logger,
		defaults: params.Defaults,
	}, nil
}

// SetReevaluator attaches the monitor hook used after successful updates.
func SetReevaluator(svc Service, reeval Reevaluator) {
	if impl, ok := svc.(*service); ok {
		impl.reevalMu.Lock()
		impl.reeval = reeval
		impl.reevalMu.Unlock()
	}
}

func (s *service) Get(ctx context.Context) (*models.BudgetSettings, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		clone := *cached
		return &clone, nil
	}
	return s.load(ctx)
}

func (s *service) load(ctx context.Context) (*models.BudgetSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget settings")
	}
	if settings == nil {
		seeded := &models.BudgetSettings{
			ID:               settingsID,
			MonthlyBudget:    s.defaults.DefaultMonthlyBudget,
			DailyLimit:       s.defaults.DefaultDailyLimit,
			WarningThreshold: s.defaults.DefaultWarningThreshold,
			AutoBlockEnabled: s.defaults.DefaultAutoBlock,
			Version:          1,
		}
		if err := s.repo.EnsureDefaults(ctx, seeded); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed budget settings")
		}
		settings, err = s.repo.Get(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget settings")
		}
		if settings == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "budget settings missing after seed")
		}
	}

	s.mu.Lock()
	s.cached = settings
	s.mu.Unlock()
	clone := *settings
	return &clone, nil
}

func (s *service) Update(ctx context.Context, patch UpdatePatch, actor string) (*models.BudgetSettings, error) {
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var updated *models.BudgetSettings
	var before, after settingsState
	changed := false

	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, err := s.repo.Get(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget settings")
		}
		if current == nil {
			if _, err := s.load(ctx); err != nil {
				return err
			}
			if current, err = s.repo.Get(ctx); err != nil || current == nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget settings")
			}
		}

		next := *current
		applyPatch(&next, patch)
		before = stateOf(current)
		after = stateOf(&next)
		if statesEqual(before, after) {
			changed = false
			updated = current
			return nil
		}

		if next.DailyLimit.GreaterThan(next.MonthlyBudget) {
			s.log.Warn(s.log.WithActor(ctx, actor), fmt.Sprintf(
				"daily limit %s exceeds monthly budget %s", next.DailyLimit, next.MonthlyBudget))
		}

		next.UpdatedBy = actor
		ok, err := s.repo.UpdateVersioned(ctx, &next, current.Version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist budget settings")
		}
		if !ok {
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "budget settings were updated concurrently"))
		}

		next.Version = current.Version + 1
		changed = true
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		clone := *updated
		return &clone, nil
	}

	s.mu.Lock()
	s.cached = updated
	s.mu.Unlock()

	s.auditor.Record(ctx, audit.RecordInput{
		Actor:    actor,
		Action:   enums.AuditActionSettingsUpdated,
		Subject:  "budget_settings",
		Before:   before,
		After:    after,
		Severity: enums.AuditSeverityInfo,
	})

	s.reevalMu.RLock()
	reeval := s.reeval
	s.reevalMu.RUnlock()
	if reeval != nil {
		if err := reeval.RunOnce(ctx); err != nil {
			s.log.Error(ctx, "post-update budget evaluation", err)
		}
	}

	clone := *updated
	return &clone, nil
}

func validatePatch(patch UpdatePatch) error {
	if patch.WarningThreshold != nil && (*patch.WarningThreshold < 0 || *patch.WarningThreshold > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("warning threshold must be within [0,100], got %d", *patch.WarningThreshold))
	}
	if patch.MonthlyBudget != nil && patch.MonthlyBudget.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "monthly budget must not be negative")
	}
	if patch.DailyLimit != nil && patch.DailyLimit.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "daily limit must not be negative")
	}
	return nil
}

func applyPatch(settings *models.BudgetSettings, patch UpdatePatch) {
	if patch.MonthlyBudget != nil {
		settings.MonthlyBudget = *patch.MonthlyBudget
	}
	if patch.DailyLimit != nil {
		settings.DailyLimit = *patch.DailyLimit
	}
	if patch.WarningThreshold != nil {
		settings.WarningThreshold = *patch.WarningThreshold
	}
	if patch.AutoBlockEnabled != nil {
		settings.AutoBlockEnabled = *patch.AutoBlockEnabled
	}
}

// statesEqual compares field by field; decimal equality is by value, not
// pointer identity.
func statesEqual(a, b settingsState) bool {
	return a.MonthlyBudget.Equal(b.MonthlyBudget) &&
		a.DailyLimit.Equal(b.DailyLimit) &&
		a.WarningThreshold == b.WarningThreshold &&
		a.AutoBlockEnabled == b.AutoBlockEnabled
}

func stateOf(settings *models.BudgetSettings) settingsState {
	return settingsState{
		MonthlyBudget:    settings.MonthlyBudget,
		DailyLimit:       settings.DailyLimit,
		WarningThreshold: settings.WarningThreshold,
		AutoBlockEnabled: settings.AutoBlockEnabled,
	}
}
