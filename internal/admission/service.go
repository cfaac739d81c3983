package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/emergency"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/metrics"
)

// DecideInput is one spend admission request.
type DecideInput struct {
	Amount   decimal.Decimal
	Category enums.EventCategory
}

// Decision is the admission verdict. A denial is a decision, not an error;
// errors are reserved for dependency failures, which always fail closed.
type Decision struct {
	Admitted bool                  `json:"admitted"`
	Reason   *enums.DenyReason     `json:"reason,omitempty"`
	Snapshot *budget.UsageSnapshot `json:"snapshot,omitempty"`
}

// Service decides whether a spend event may proceed.
type Service interface {
	Decide(ctx context.Context, input DecideInput) (*Decision, error)
}

type service struct {
	ledger    ledger.Service
	settings  budget.Service
	emergency emergency.Service
	metrics   *metrics.AdmissionMetrics
	now       func() time.Time
}

// ServiceParams wires admission controller dependencies.
type ServiceParams struct {
	Ledger    ledger.Service
	Settings  budget.Service
	Emergency emergency.Service
	Metrics   *metrics.AdmissionMetrics
}

// NewService wires the admission controller.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admission ledger required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admission settings service required")
	}
	if params.Emergency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admission emergency service required")
	}
	if params.Metrics == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admission metrics required")
	}
	return &service{
		ledger:    params.Ledger,
		settings:  params.Settings,
		emergency: params.Emergency,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

// Decide applies the admission rules in order: global breaker, category
// breaker, then the atomic budget commit. Only an admitted decision consumes
// budget.
func (s *service) Decide(ctx context.Context, input DecideInput) (*Decision, error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveDecide(string(input.Category), s.now().Sub(started))
	}()

	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid event category %q", input.Category))
	}
	if input.Category == enums.EventCategoryAllEvents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "all_events is a control scope, not an event category")
	}

	globalOn, err := s.emergency.IsEnabled(ctx, enums.EventCategoryAllEvents)
	if err != nil {
		return nil, err
	}
	if globalOn {
		return s.deny(input.Category, enums.DenyReasonEmergencyGlobal, nil), nil
	}

	categoryOn, err := s.emergency.IsEnabled(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	if categoryOn {
		return s.deny(input.Category, enums.DenyReasonEmergencyCategory, nil), nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	day := ledger.DayKey(s.now())
	result, err := s.ledger.TryCommit(ctx, ledger.TryCommitInput{
		Amount:        input.Amount,
		Day:           day,
		DailyLimit:    settings.DailyLimit,
		MonthlyBudget: settings.MonthlyBudget,
	})
	if err != nil {
		return nil, err
	}

	usage := ledger.Usage{DailyUsed: result.DailyUsed, MonthUsed: result.MonthUsed}
	snapshot := budget.ComputeSnapshot(day, usage, settings)

	if !result.Admitted {
		reason := enums.DenyReasonDailyLimit
		if result.Breach == ledger.BreachMonthly {
			reason = enums.DenyReasonMonthlyBudget
		}
		return s.deny(input.Category, reason, &snapshot), nil
	}

	s.metrics.IncAdmitted(string(input.Category))
	return &Decision{Admitted: true, Snapshot: &snapshot}, nil
}

func (s *service) deny(category enums.EventCategory, reason enums.DenyReason, snapshot *budget.UsageSnapshot) *Decision {
	s.metrics.IncDenied(string(category), string(reason))
	return &Decision{Reason: &reason, Snapshot: snapshot}
}
