package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bravo6co-debug/buzz-backend/internal/admission"
	"github.com/bravo6co-debug/buzz-backend/internal/audit"
	"github.com/bravo6co-debug/buzz-backend/internal/budget"
	"github.com/bravo6co-debug/buzz-backend/internal/ledger"
	pkgAuth "github.com/bravo6co-debug/buzz-backend/pkg/auth"
	"github.com/bravo6co-debug/buzz-backend/pkg/config"
	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	"github.com/bravo6co-debug/buzz-backend/pkg/logger"
	"github.com/bravo6co-debug/buzz-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAdmission struct {
	decision *admission.Decision
}

func (s *stubAdmission) Decide(ctx context.Context, input admission.DecideInput) (*admission.Decision, error) {
	return s.decision, nil
}

type stubBudget struct {
	settings *models.BudgetSettings
}

func (s *stubBudget) Get(ctx context.Context) (*models.BudgetSettings, error) {
	return s.settings, nil
}

func (s *stubBudget) Update(ctx context.Context, patch budget.UpdatePatch, actor string) (*models.BudgetSettings, error) {
	return s.settings, nil
}

type stubLedger struct{}

func (stubLedger) TryCommit(ctx context.Context, input ledger.TryCommitInput) (ledger.CommitResult, error) {
	return ledger.CommitResult{Admitted: true}, nil
}

func (stubLedger) Usage(ctx context.Context, day string) (ledger.Usage, error) {
	return ledger.Usage{}, nil
}

type stubEmergency struct {
	controls []models.EmergencyControl
}

func (s *stubEmergency) Arm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
	return &models.EmergencyControl{Category: category, Enabled: true, ArmedBy: &actor}, nil
}

func (s *stubEmergency) Disarm(ctx context.Context, category enums.EventCategory, actor string) (*models.EmergencyControl, error) {
	return &models.EmergencyControl{Category: category}, nil
}

func (s *stubEmergency) List(ctx context.Context) ([]models.EmergencyControl, error) {
	return s.controls, nil
}

func (s *stubEmergency) IsEnabled(ctx context.Context, category enums.EventCategory) (bool, error) {
	return false, nil
}

type stubAudit struct{}

func (stubAudit) Record(ctx context.Context, input audit.RecordInput) {}

func (stubAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "buzz", ExpirationMinutes: 30},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	admitted := true
	return NewRouter(RouterParams{
		Config: testConfig(),
		Logger: logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DB:     stubPinger{},
		Redis:  stubPinger{},
		Admission: &stubAdmission{decision: &admission.Decision{
			Admitted: admitted,
		}},
		Budget: &stubBudget{settings: &models.BudgetSettings{
			ID:            1,
			MonthlyBudget: decimal.NewFromInt(1000),
			DailyLimit:    decimal.NewFromInt(50),
			Version:       1,
		}},
		Ledger:    stubLedger{},
		Emergency: &stubEmergency{},
		Audit:     stubAudit{},
	})
}

func mintToken(t *testing.T, admin bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		Actor: "kim.admin",
		Admin: admin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterHealthReadyPingsDependencies(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterAdmissionDecideIsPublic(t *testing.T) {
	router := testRouter(t)

	body := strings.NewReader(`{"amount": "150.00", "category": "referral_rewards"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admission/decide", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["admitted"] != true {
		t.Fatalf("unexpected decision payload: %v", envelope.Data)
	}
}

func TestRouterAdminRoutesRequireToken(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/budget/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouterAdminRoutesRejectNonAdmin(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/budget/settings", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouterAdminBudgetSettings(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/budget/settings", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterAdminArmControl(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/emergency-controls/all_events/arm", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["enabled"] != true {
		t.Fatalf("unexpected control payload: %v", envelope.Data)
	}
}

func TestRouterAdminInvalidCategoryRejected(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/emergency-controls/lottery/arm", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
