package monitor

import (
	"context"
	"time"

	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/emergency"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
	"github.com/bravo6co-debug/buzz-backend/pkg/metrics"

	"github.com/bravo6co-debug/buzz-backend/internal/audit"
)

// Evaluation triggers, used as the metrics label.
const (
	TriggerStartup        = "startup"
	TriggerInterval       = "interval"
	TriggerKick           = "kick"
	TriggerSettingsUpdate = "settings_update"
)

// Evaluator runs one budget evaluation: read today's usage, classify it, and
// trip the global breaker when a ceiling has been breached. It never consumes
// budget itself.
type Evaluator struct {
	ledger   ledger.Service
	settings budget.Service
	breakers emergency.Service
	auditor  audit.Service
	log      *logger.Logger
	metrics  *metrics.MonitorMetrics
	now      func() time.Time
}

// EvaluatorParams wires evaluator dependencies.
type EvaluatorParams struct {
	Ledger   ledger.Service
	Settings budget.Service
	Breakers emergency.Service
	Auditor  audit.Service
	Logger   *logger.Logger
	Metrics  *metrics.MonitorMetrics
}

// NewEvaluator wires a budget evaluator.
func NewEvaluator(params EvaluatorParams) (*Evaluator, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor ledger required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor settings service required")
	}
	if params.Breakers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor emergency service required")
	}
	if params.Auditor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor auditor required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor logger required")
	}
	if params.Metrics == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitor metrics required")
	}
	return &Evaluator{
		ledger:   params.Ledger,
		settings: params.Settings,
		breakers: params.Breakers,
		auditor:  params.Auditor,
		log:      params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// RunOnce evaluates immediately. Settings updates call this so a lowered
// ceiling takes effect without waiting for the interval.
func (e *Evaluator) RunOnce(ctx context.Context) error {
	return e.Evaluate(ctx, TriggerSettingsUpdate)
}

// Evaluate performs one classification cycle for today.
func (e *Evaluator) Evaluate(ctx context.Context, trigger string) error {
	started := e.now()
	err := e.evaluate(ctx, trigger)
	e.metrics.ObserveDuration(trigger, e.now().Sub(started))
	if err != nil {
		e.metrics.IncFailure(trigger)
		return err
	}
	e.metrics.IncSuccess(trigger)
	return nil
}

func (e *Evaluator) evaluate(ctx context.Context, trigger string) error {
	ctx = e.log.WithField(ctx, "trigger", trigger)

	settings, err := e.settings.Get(ctx)
	if err != nil {
		return err
	}

	day := ledger.DayKey(e.now())
	usage, err := e.ledger.Usage(ctx, day)
	if err != nil {
		return err
	}

	snapshot := budget.ComputeSnapshot(day, usage, settings)
	e.metrics.SetStatus(string(snapshot.Status), statusLabels())

	switch snapshot.Status {
	case enums.BudgetStatusBlocked, enums.BudgetStatusExceeded:
		return e.handleBreach(ctx, snapshot, settings.AutoBlockEnabled)
	case enums.BudgetStatusWarning:
		e.auditor.Record(ctx, audit.RecordInput{
			Actor:    emergency.SystemActor,
			Action:   enums.AuditActionBudgetWarning,
			Subject:  "budget:monthly",
			After:    snapshot,
			Severity: enums.AuditSeverityWarning,
		})
		e.log.Warn(ctx, "budget usage crossed the warning threshold")
	}
	return nil
}

func (e *Evaluator) handleBreach(ctx context.Context, snapshot budget.UsageSnapshot, autoBlock bool) error {
	subject := "budget:monthly"
	if snapshot.Status == enums.BudgetStatusBlocked {
		subject = "budget:daily"
	}

	// A breach that is already contained needs no re-arm and no repeated
	// audit noise every cycle.
	armed, err := e.breakers.IsEnabled(ctx, enums.EventCategoryAllEvents)
	if err != nil {
		return err
	}
	if armed {
		return nil
	}

	if autoBlock {
		if _, err := e.breakers.Arm(ctx, enums.EventCategoryAllEvents, emergency.SystemActor); err != nil {
			return err
		}
	}

	e.auditor.Record(ctx, audit.RecordInput{
		Actor:    emergency.SystemActor,
		Action:   enums.AuditActionBudgetBreached,
		Subject:  subject,
		After:    snapshot,
		Severity: enums.AuditSeverityCritical,
	})
	e.log.Warn(e.log.WithField(ctx, "subject", subject), "budget ceiling breached")
	return nil
}

func statusLabels() []string {
	labels := make([]string, 0, 4)
	for _, status := range []enums.BudgetStatus{
		enums.BudgetStatusNormal,
		enums.BudgetStatusWarning,
		enums.BudgetStatusExceeded,
		enums.BudgetStatusBlocked,
	} {
		labels = append(labels, string(status))
	}
	return labels
}
