package emergency

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	pkgerrors "github.com/bravo6co-debug/buzz-backend/pkg/errors"
)

type fakeRepository struct {
	controls []models.EmergencyControl
	updates  []models.EmergencyControl
	listErr  error
	updateFn func(ctx context.Context, control *models.EmergencyControl) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) List(ctx context.Context) ([]models.EmergencyControl, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.controls, nil
}

func (f *fakeRepository) Update(ctx context.Context, control *models.EmergencyControl) error {
	f.updates = append(f.updates, *control)
	if f.updateFn != nil {
		return f.updateFn(ctx, control)
	}
	return nil
}

func (f *fakeRepository) EnsureDefaults(ctx context.Context) error { return nil }

type fakeAuditor struct {
	records []audit.RecordInput
}

func (f *fakeAuditor) Record(ctx context.Context, input audit.RecordInput) {
	f.records = append(f.records, input)
}

func (f *fakeAuditor) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

func seededControls() []models.EmergencyControl {
	return []models.EmergencyControl{
		{Category: enums.EventCategoryAllEvents, Name: "Global stop"},
		{Category: enums.EventCategoryNewSignups, Name: "Signup rewards"},
		{Category: enums.EventCategoryReferralRewards, Name: "Referral rewards"},
		{Category: enums.EventCategoryQREvents, Name: "QR events"},
	}
}

func newTestService(t *testing.T, repo Repository, auditor audit.Service) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Auditor: auditor})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_ArmEnablesAndAudits(t *testing.T) {
	repo := &fakeRepository{controls: seededControls()}
	auditor := &fakeAuditor{}
	svc := newTestService(t, repo, auditor)

	control, err := svc.Arm(context.Background(), enums.EventCategoryReferralRewards, "kim.admin")
	if err != nil {
		t.Fatalf("Arm error: %v", err)
	}
	if !control.Enabled {
		t.Fatal("expected control enabled")
	}
	if control.ArmedBy == nil || *control.ArmedBy != "kim.admin" {
		t.Fatalf("expected armed_by kim.admin, got %v", control.ArmedBy)
	}
	if control.ArmedAt == nil {
		t.Fatal("expected armed_at set")
	}

	enabled, err := svc.IsEnabled(context.Background(), enums.EventCategoryReferralRewards)
	if err != nil {
		t.Fatalf("IsEnabled error: %v", err)
	}
	if !enabled {
		t.Fatal("cache not updated after arm")
	}

	if len(auditor.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditor.records))
	}
	record := auditor.records[0]
	if record.Action != enums.AuditActionControlArmed || record.Actor != "kim.admin" {
		t.Fatalf("unexpected audit record: %+v", record)
	}
	if record.Subject != "emergency_control:referral_rewards" {
		t.Fatalf("unexpected audit subject %q", record.Subject)
	}
}

func TestService_ArmIsIdempotent(t *testing.T) {
	repo := &fakeRepository{controls: seededControls()}
	auditor := &fakeAuditor{}
	svc := newTestService(t, repo, auditor)

	if _, err := svc.Arm(context.Background(), enums.EventCategoryAllEvents, "first.admin"); err != nil {
		t.Fatalf("first Arm error: %v", err)
	}
	control, err := svc.Arm(context.Background(), enums.EventCategoryAllEvents, "second.admin")
	if err != nil {
		t.Fatalf("second Arm error: %v", err)
	}

	if !control.Enabled {
		t.Fatal("expected control to stay enabled")
	}
	if control.ArmedBy == nil || *control.ArmedBy != "second.admin" {
		t.Fatalf("re-arm must refresh attribution, got %v", control.ArmedBy)
	}
	if len(repo.updates) != 2 {
		t.Fatalf("expected 2 persisted updates, got %d", len(repo.updates))
	}
	if len(auditor.records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(auditor.records))
	}
}

func TestService_DisarmSystemArmedControl(t *testing.T) {
	armedBy := SystemActor
	controls := seededControls()
	controls[0].Enabled = true
	controls[0].ArmedBy = &armedBy
	repo := &fakeRepository{controls: controls}
	auditor := &fakeAuditor{}
	svc := newTestService(t, repo, auditor)

	control, err := svc.Disarm(context.Background(), enums.EventCategoryAllEvents, "kim.admin")
	if err != nil {
		t.Fatalf("Disarm error: %v", err)
	}
	if control.Enabled {
		t.Fatal("expected control disabled")
	}
	if control.ArmedBy != nil || control.ArmedAt != nil {
		t.Fatalf("expected armed attribution cleared, got %v %v", control.ArmedBy, control.ArmedAt)
	}

	if len(auditor.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditor.records))
	}
	if auditor.records[0].Action != enums.AuditActionControlDisarmed {
		t.Fatalf("unexpected audit action %q", auditor.records[0].Action)
	}
}

func TestService_DisarmDisabledControlIsNoop(t *testing.T) {
	repo := &fakeRepository{controls: seededControls()}
	auditor := &fakeAuditor{}
	svc := newTestService(t, repo, auditor)

	control, err := svc.Disarm(context.Background(), enums.EventCategoryQREvents, "kim.admin")
	if err != nil {
		t.Fatalf("Disarm error: %v", err)
	}
	if control.Enabled {
		t.Fatal("expected control disabled")
	}
	if len(repo.updates) != 0 {
		t.Fatalf("no-op disarm must not persist, saw %d updates", len(repo.updates))
	}
	if len(auditor.records) != 0 {
		t.Fatalf("no-op disarm must not audit, saw %d records", len(auditor.records))
	}
}

func TestService_ArmValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{controls: seededControls()}, &fakeAuditor{})

	if _, err := svc.Arm(context.Background(), enums.EventCategory("not_real"), "kim.admin"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Arm(context.Background(), enums.EventCategoryAllEvents, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing actor, got %v", err)
	}
}

func TestService_ArmPersistFailureLeavesCacheUntouched(t *testing.T) {
	repo := &fakeRepository{
		controls: seededControls(),
		updateFn: func(ctx context.Context, control *models.EmergencyControl) error {
			return errors.New("db down")
		},
	}
	auditor := &fakeAuditor{}
	svc := newTestService(t, repo, auditor)

	if _, err := svc.Arm(context.Background(), enums.EventCategoryAllEvents, "kim.admin"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	enabled, err := svc.IsEnabled(context.Background(), enums.EventCategoryAllEvents)
	if err != nil {
		t.Fatalf("IsEnabled error: %v", err)
	}
	if enabled {
		t.Fatal("cache must not reflect a failed persist")
	}
	if len(auditor.records) != 0 {
		t.Fatalf("failed transition must not audit, saw %d records", len(auditor.records))
	}
}

func TestService_ListReturnsCanonicalOrder(t *testing.T) {
	repo := &fakeRepository{controls: seededControls()}
	svc := newTestService(t, repo, &fakeAuditor{})

	controls, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(controls) != 4 {
		t.Fatalf("expected 4 controls, got %d", len(controls))
	}
	want := enums.AllEventCategories()
	for i, control := range controls {
		if control.Category != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], control.Category)
		}
	}
}

func TestService_ListRepoErrorSurfacesAsDependency(t *testing.T) {
	repo := &fakeRepository{listErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakeAuditor{})

	if _, err := svc.List(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
