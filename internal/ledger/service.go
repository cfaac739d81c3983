package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
)

// DayLayout is the canonical calendar-day key format, always in UTC.
const DayLayout = "2006-01-02"

// DayKey formats a timestamp as a UTC calendar-day ledger key.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Breach names the ceiling a commit attempt ran into.
type Breach string

const (
	BreachNone    Breach = ""
	BreachDaily   Breach = "daily"
	BreachMonthly Breach = "monthly"
)

// TryCommitInput bounds a single atomic spend attempt.
type TryCommitInput struct {
	Amount        decimal.Decimal
	Day           string
	DailyLimit    decimal.Decimal
	MonthlyBudget decimal.Decimal
}

// CommitResult reports whether the spend was admitted and the ledger totals
// observed by the attempt. On a denial the totals are the unchanged values.
type CommitResult struct {
	Admitted  bool
	Breach    Breach
	DailyUsed decimal.Decimal
	MonthUsed decimal.Decimal
}

// Usage is a read-only view of one day and its month-to-date total.
type Usage struct {
	DailyUsed decimal.Decimal
	MonthUsed decimal.Decimal
}

// Service is the authoritative spend accumulator. All admission decisions
// funnel through TryCommit so two concurrent callers can never both consume
// the last unit of headroom.
type Service interface {
	TryCommit(ctx context.Context, input TryCommitInput) (CommitResult, error)
	Usage(ctx context.Context, day string) (Usage, error)
}

type service struct {
	repo Repository

	mu     sync.Mutex
	months map[string]*monthBucket
}

// monthBucket holds one calendar month of in-memory state. The running total
// spans every day of the month, so the whole bucket shares the service mutex.
type monthBucket struct {
	days  map[string]decimal.Decimal
	total decimal.Decimal
}

// NewService wires a usage ledger with the provided repository. Buckets are
// hydrated lazily from persisted entries on first touch of a month.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{
		repo:   repo,
		months: make(map[string]*monthBucket),
	}, nil
}

func (s *service) TryCommit(ctx context.Context, input TryCommitInput) (CommitResult, error) {
	if !input.Amount.IsPositive() {
		return CommitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	day, month, err := splitDay(input.Day)
	if err != nil {
		return CommitResult{}, err
	}

	if err := s.ensureMonth(ctx, month); err != nil {
		return CommitResult{}, err
	}

	s.mu.Lock()
	bucket := s.months[month]
	dailyUsed := bucket.days[day]
	newDaily := dailyUsed.Add(input.Amount)
	newMonth := bucket.total.Add(input.Amount)

	if newDaily.GreaterThan(input.DailyLimit) {
		result := CommitResult{Breach: BreachDaily, DailyUsed: dailyUsed, MonthUsed: bucket.total}
		s.mu.Unlock()
		return result, nil
	}
	if newMonth.GreaterThan(input.MonthlyBudget) {
		result := CommitResult{Breach: BreachMonthly, DailyUsed: dailyUsed, MonthUsed: bucket.total}
		s.mu.Unlock()
		return result, nil
	}

	bucket.days[day] = newDaily
	bucket.total = newMonth
	s.mu.Unlock()

	if err := s.persist(ctx, month, day); err != nil {
		s.mu.Lock()
		bucket.days[day] = bucket.days[day].Sub(input.Amount)
		bucket.total = bucket.total.Sub(input.Amount)
		s.mu.Unlock()
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist usage ledger entry")
	}

	return CommitResult{Admitted: true, DailyUsed: newDaily, MonthUsed: newMonth}, nil
}

func (s *service) Usage(ctx context.Context, dayKey string) (Usage, error) {
	day, month, err := splitDay(dayKey)
	if err != nil {
		return Usage{}, err
	}
	if err := s.ensureMonth(ctx, month); err != nil {
		return Usage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.months[month]
	return Usage{DailyUsed: bucket.days[day], MonthUsed: bucket.total}, nil
}

// persist writes the current totals for the day. Values are re-read under the
// lock so a slow writer never clobbers a newer committed total.
func (s *service) persist(ctx context.Context, month, day string) error {
	s.mu.Lock()
	bucket := s.months[month]
	entry := &models.UsageLedgerEntry{
		Day:               day,
		DailyUsed:         bucket.days[day],
		MonthRunningTotal: bucket.total,
	}
	s.mu.Unlock()

	return s.repo.Upsert(ctx, entry)
}

func (s *service) ensureMonth(ctx context.Context, month string) error {
	s.mu.Lock()
	_, ok := s.months[month]
	s.mu.Unlock()
	if ok {
		return nil
	}

	entries, err := s.repo.ListMonth(ctx, month)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hydrate usage ledger month")
	}

	bucket := &monthBucket{days: make(map[string]decimal.Decimal)}
	for _, entry := range entries {
		bucket.days[entry.Day] = entry.DailyUsed
		bucket.total = bucket.total.Add(entry.DailyUsed)
	}

	s.mu.Lock()
	if _, ok := s.months[month]; !ok {
		s.months[month] = bucket
	}
	s.mu.Unlock()
	return nil
}

func splitDay(dayKey string) (day, month string, err error) {
	parsed, parseErr := time.Parse(DayLayout, dayKey)
	if parseErr != nil {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid day %q, want YYYY-MM-DD", dayKey))
	}
	day = parsed.Format(DayLayout)
	return day, day[:7], nil
}
