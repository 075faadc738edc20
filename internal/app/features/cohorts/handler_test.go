package cohorts_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/features/cohorts"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/app/system/workers"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func day(offset int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, offset)
}

func newTestHandler(t *testing.T, db *mongo.Database, drive gdrive.Service) *cohorts.Handler {
	t.Helper()
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	rec := workers.NewCohortReconciler(cohortstore.New(db), logger, time.Hour)
	return cohorts.NewHandler(db, errLog, &gdrive.Factory{Override: drive}, rec, "test-cron-secret", logger)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return buf
}

func asAdmin(r *http.Request, u models.User) *http.Request {
	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.InstitutionID != nil {
		su.InstitutionID = u.InstitutionID.Hex()
	}
	return auth.WithTestUser(r, su)
}

func TestHandleCreate_FirstCohortWithCurrentDatesIsActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	fake := &gdrive.Fake{}
	handler := newTestHandler(t, db, fake)

	req := httptest.NewRequest("POST", "/cohorts", jsonBody(t, map[string]any{
		"name":       "Spring 2026",
		"start_date": day(-1),
		"end_date":   day(60),
	}))
	req = asAdmin(req, admin)
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var co models.Cohort
	if err := json.Unmarshal(rec.Body.Bytes(), &co); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if co.Status != models.CohortActive {
		t.Errorf("status: got %q, want %q", co.Status, models.CohortActive)
	}
	// Folder provisioning created the institution root and cohort folder.
	if len(fake.Folders) != 2 {
		t.Errorf("created %d folders, want 2", len(fake.Folders))
	}
}

func TestHandleCreate_UpcomingWhileAnotherActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	fx.CreateCohort(ctx, inst.ID, "Current", models.CohortActive, day(-30), day(10))
	handler := newTestHandler(t, db, &gdrive.Fake{})

	// Starts after the active cohort ends; while one is active the new
	// cohort is always upcoming.
	req := httptest.NewRequest("POST", "/cohorts", jsonBody(t, map[string]any{
		"name":       "Next",
		"start_date": day(11),
		"end_date":   day(90),
	}))
	req = asAdmin(req, admin)
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var co models.Cohort
	if err := json.Unmarshal(rec.Body.Bytes(), &co); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if co.Status != models.CohortUpcoming {
		t.Errorf("status: got %q, want %q", co.Status, models.CohortUpcoming)
	}
}

func TestHandleCreate_OverlapRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	fx.CreateCohort(ctx, inst.ID, "Planned", models.CohortUpcoming, day(20), day(80))
	handler := newTestHandler(t, db, &gdrive.Fake{})

	// Overlaps the upcoming cohort; bounds are inclusive.
	req := httptest.NewRequest("POST", "/cohorts", jsonBody(t, map[string]any{
		"name":       "Colliding",
		"start_date": day(80),
		"end_date":   day(120),
	}))
	req = asAdmin(req, admin)
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_RequiresAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fellow := fx.CreateUser(ctx, "Fran Fellow", "fran@acme.test", models.RoleFellow, nil)
	handler := newTestHandler(t, db, &gdrive.Fake{})

	req := httptest.NewRequest("POST", "/cohorts", jsonBody(t, map[string]any{
		"name":       "Rogue",
		"start_date": day(1),
		"end_date":   day(2),
	}))
	req = asAdmin(req, fellow)
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleReconcile_CronSecret(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	fx.CreateCohort(ctx, inst.ID, "Expired", models.CohortActive, day(-90), day(-1))
	handler := newTestHandler(t, db, &gdrive.Fake{})

	// No session, wrong secret: rejected.
	req := httptest.NewRequest("POST", "/cohorts/reconcile", nil)
	req.Header.Set("X-Cron-Secret", "wrong")
	rec := httptest.NewRecorder()
	handler.HandleReconcile(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	// Correct secret runs a pass.
	req = httptest.NewRequest("POST", "/cohorts/reconcile", nil)
	req.Header.Set("X-Cron-Secret", "test-cron-secret")
	rec = httptest.NewRecorder()
	handler.HandleReconcile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var res workers.PassResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if res.Completed != 1 {
		t.Errorf("Completed: got %d, want 1", res.Completed)
	}
}

func TestHandleReconcile_AdminScopedToOwnInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mine := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &mine.ID)
	expired := fx.CreateCohort(ctx, mine.ID, "Mine Expired", models.CohortActive, day(-90), day(-1))

	other := fx.CreateInstitution(ctx, "Rival Institute", models.InstitutionApproved, "rae@rival.test")
	otherExpired := fx.CreateCohort(ctx, other.ID, "Rival Expired", models.CohortActive, day(-90), day(-1))

	handler := newTestHandler(t, db, &gdrive.Fake{})

	req := httptest.NewRequest("POST", "/cohorts/reconcile", nil)
	req = asAdmin(req, admin)
	rec := httptest.NewRecorder()
	handler.HandleReconcile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var res workers.PassResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if res.Completed != 1 || res.Institutions != 1 {
		t.Errorf("got Completed=%d Institutions=%d, want 1 and 1", res.Completed, res.Institutions)
	}

	// Only the caller's cohort transitioned; the other tenant is untouched.
	store := cohortstore.New(db)
	co, err := store.GetByIDForInstitution(ctx, expired.ID, mine.ID)
	if err != nil {
		t.Fatalf("load own cohort: %v", err)
	}
	if co.Status != models.CohortCompleted {
		t.Errorf("own cohort status: got %q, want %q", co.Status, models.CohortCompleted)
	}
	co, err = store.GetByIDForInstitution(ctx, otherExpired.ID, other.ID)
	if err != nil {
		t.Fatalf("load other cohort: %v", err)
	}
	if co.Status != models.CohortActive {
		t.Errorf("other tenant's cohort status: got %q, want %q", co.Status, models.CohortActive)
	}
}
