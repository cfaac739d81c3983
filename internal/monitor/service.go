package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
)

const defaultInterval = 5 * time.Minute

// ServiceParams configure the monitor loop.
type ServiceParams struct {
	Logger    *logger.Logger
	Evaluator *Evaluator
	Lock      Lock
	Interval  time.Duration
}

// Service drives periodic budget evaluations: one immediately on start, then
// on a fixed cadence, plus any out-of-band kicks.
type Service struct {
	logg      *logger.Logger
	evaluator *Evaluator
	lock      Lock
	interval  time.Duration
	kick      chan struct{}
}

// NewService builds the monitor loop.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Evaluator == nil {
		return nil, fmt.Errorf("evaluator required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:      params.Logger,
		evaluator: params.Evaluator,
		lock:      params.Lock,
		interval:  interval,
		kick:      make(chan struct{}, 1),
	}, nil
}

// Kick requests an out-of-band evaluation. Non-blocking; a pending kick is
// enough, extra ones coalesce.
func (s *Service) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run starts the monitor loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.runCycle(ctx, TriggerStartup)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "budget monitor context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx, TriggerInterval)
		case <-s.kick:
			s.runCycle(ctx, TriggerKick)
		}
	}
}

func (s *Service) runCycle(ctx context.Context, trigger string) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "monitor lock acquire", err)
		return
	}
	if !locked {
		s.logg.Info(ctx, "another monitor instance is evaluating; skipping this cycle")
		return
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release monitor lock", relErr)
		}
	}()

	if err := s.evaluator.Evaluate(ctx, trigger); err != nil {
		s.logg.Error(ctx, "budget evaluation failed", err)
	}
}
