package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
)

type fakeRepository struct {
	mu       sync.Mutex
	upserts  int
	lastSeen *models.UsageLedgerEntry
	upsertFn func(ctx context.Context, entry *models.UsageLedgerEntry) error
	listFn   func(ctx context.Context, month string) ([]models.UsageLedgerEntry, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Upsert(ctx context.Context, entry *models.UsageLedgerEntry) error {
	f.mu.Lock()
	f.upserts++
	f.lastSeen = entry
	fn := f.upsertFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListMonth(ctx context.Context, month string) ([]models.UsageLedgerEntry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, month)
	}
	return nil, nil
}

func (f *fakeRepository) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestService_TryCommitConcurrencyNoOverdraft(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	const workers = 25
	input := TryCommitInput{
		Amount:        dec("10"),
		Day:           "2025-09-15",
		DailyLimit:    dec("50"),
		MonthlyBudget: dec("100000"),
	}

	var wg sync.WaitGroup
	results := make(chan CommitResult, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.TryCommit(context.Background(), input)
			if err != nil {
				t.Errorf("TryCommit error: %v", err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for res := range results {
		if res.Admitted {
			admitted++
		} else if res.Breach != BreachDaily {
			t.Fatalf("expected daily breach on denial, got %q", res.Breach)
		}
	}
	if admitted != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", admitted)
	}

	usage, err := svc.Usage(context.Background(), input.Day)
	if err != nil {
		t.Fatalf("Usage error: %v", err)
	}
	if !usage.DailyUsed.Equal(dec("50")) {
		t.Fatalf("expected daily used 50, got %s", usage.DailyUsed)
	}
	if !usage.MonthUsed.Equal(dec("50")) {
		t.Fatalf("expected month used 50, got %s", usage.MonthUsed)
	}
}

func TestService_TryCommitDenialDoesNotMutate(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	res, err := svc.TryCommit(context.Background(), TryCommitInput{
		Amount:        dec("100"),
		Day:           "2025-09-15",
		DailyLimit:    dec("50"),
		MonthlyBudget: dec("100000"),
	})
	if err != nil {
		t.Fatalf("TryCommit error: %v", err)
	}
	if res.Admitted {
		t.Fatal("expected denial")
	}
	if res.Breach != BreachDaily {
		t.Fatalf("expected daily breach, got %q", res.Breach)
	}
	if !res.DailyUsed.IsZero() || !res.MonthUsed.IsZero() {
		t.Fatalf("denial leaked usage: daily=%s month=%s", res.DailyUsed, res.MonthUsed)
	}
	if repo.upsertCount() != 0 {
		t.Fatalf("denial must not persist, saw %d upserts", repo.upsertCount())
	}

	usage, err := svc.Usage(context.Background(), "2025-09-15")
	if err != nil {
		t.Fatalf("Usage error: %v", err)
	}
	if !usage.DailyUsed.IsZero() {
		t.Fatalf("expected zero daily used after denial, got %s", usage.DailyUsed)
	}
}

func TestService_TryCommitMonthlyBreach(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, month string) ([]models.UsageLedgerEntry, error) {
			return []models.UsageLedgerEntry{
				{Day: "2025-09-01", DailyUsed: dec("90"), MonthRunningTotal: dec("90")},
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	res, err := svc.TryCommit(context.Background(), TryCommitInput{
		Amount:        dec("20"),
		Day:           "2025-09-15",
		DailyLimit:    dec("50"),
		MonthlyBudget: dec("100"),
	})
	if err != nil {
		t.Fatalf("TryCommit error: %v", err)
	}
	if res.Admitted {
		t.Fatal("expected monthly denial")
	}
	if res.Breach != BreachMonthly {
		t.Fatalf("expected monthly breach, got %q", res.Breach)
	}
	if !res.MonthUsed.Equal(dec("90")) {
		t.Fatalf("expected month used 90, got %s", res.MonthUsed)
	}
}

func TestService_TryCommitRollsBackOnPersistFailure(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &fakeRepository{
		upsertFn: func(ctx context.Context, entry *models.UsageLedgerEntry) error {
			return boom
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.TryCommit(context.Background(), TryCommitInput{
		Amount:        dec("10"),
		Day:           "2025-09-15",
		DailyLimit:    dec("50"),
		MonthlyBudget: dec("100"),
	})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}

	usage, err := svc.Usage(context.Background(), "2025-09-15")
	if err != nil {
		t.Fatalf("Usage error: %v", err)
	}
	if !usage.DailyUsed.IsZero() || !usage.MonthUsed.IsZero() {
		t.Fatalf("expected rollback to zero, got daily=%s month=%s", usage.DailyUsed, usage.MonthUsed)
	}
}

func TestService_UsageHydratesMonthFromRepository(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, month string) ([]models.UsageLedgerEntry, error) {
			if month != "2025-09" {
				t.Fatalf("unexpected month %q", month)
			}
			return []models.UsageLedgerEntry{
				{Day: "2025-09-01", DailyUsed: dec("12.50"), MonthRunningTotal: dec("12.50")},
				{Day: "2025-09-02", DailyUsed: dec("7.25"), MonthRunningTotal: dec("19.75")},
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	usage, err := svc.Usage(context.Background(), "2025-09-02")
	if err != nil {
		t.Fatalf("Usage error: %v", err)
	}
	if !usage.DailyUsed.Equal(dec("7.25")) {
		t.Fatalf("expected daily used 7.25, got %s", usage.DailyUsed)
	}
	if !usage.MonthUsed.Equal(dec("19.75")) {
		t.Fatalf("expected month used 19.75, got %s", usage.MonthUsed)
	}
}

func TestService_TryCommitValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input TryCommitInput
	}{
		{
			name:  "zero amount",
			input: TryCommitInput{Amount: decimal.Zero, Day: "2025-09-15", DailyLimit: dec("50"), MonthlyBudget: dec("100")},
		},
		{
			name:  "negative amount",
			input: TryCommitInput{Amount: dec("-1"), Day: "2025-09-15", DailyLimit: dec("50"), MonthlyBudget: dec("100")},
		},
		{
			name:  "malformed day",
			input: TryCommitInput{Amount: dec("1"), Day: "Sept 15", DailyLimit: dec("50"), MonthlyBudget: dec("100")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TryCommit(context.Background(), tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
