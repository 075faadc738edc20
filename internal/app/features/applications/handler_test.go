package applications_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/features/applications"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func day(offset int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, offset)
}

func newTestHandler(t *testing.T, db *mongo.Database, mail *mailer.DummySender) *applications.Handler {
	t.Helper()
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	return applications.NewHandler(db.Client(), db, errLog, mail,
		"FellowHub", "http://localhost:3000", logger)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return buf
}

func asUser(r *http.Request, u models.User) *http.Request {
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

func TestHandleSubmit_SanitizesAndNotifies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	applicant := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", "", nil)
	mail := &mailer.DummySender{}
	handler := newTestHandler(t, db, mail)

	req := httptest.NewRequest("POST", "/applications", jsonBody(t, map[string]string{
		"institution_id": inst.ID.Hex(),
		"full_name":      "Fran <script>alert('x')</script>Fellow",
		"education":      "BSc",
		"experience":     "Two years",
		"motivation":     "<p>Keen to <strong>learn</strong></p>",
	}))
	req = asUser(req, applicant)
	rec := httptest.NewRecorder()

	handler.HandleSubmit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var app models.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("status: got %q, want %q", app.Status, models.ApplicationPending)
	}
	if app.Data.FullName != "Fran Fellow" {
		t.Errorf("full name not sanitized: %q", app.Data.FullName)
	}
	if app.Data.Motivation != "<p>Keen to <strong>learn</strong></p>" {
		t.Errorf("safe markup should survive: %q", app.Data.Motivation)
	}

	// Receipt to the applicant plus a notice per institution admin.
	if len(mail.Sent) != 2 {
		t.Errorf("sent %d emails, want 2", len(mail.Sent))
	}

	// Re-applying conflicts.
	req = httptest.NewRequest("POST", "/applications", jsonBody(t, map[string]string{
		"institution_id": inst.ID.Hex(),
		"full_name":      "Fran Fellow",
		"education":      "BSc",
		"experience":     "Two years",
		"motivation":     "Still keen",
	}))
	req = asUser(req, applicant)
	rec = httptest.NewRecorder()
	handler.HandleSubmit(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("repeat submit: expected %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestHandleReview_ApproveEnrollsFellow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	applicant := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", "", nil)
	cohort := fx.CreateCohort(ctx, inst.ID, "Spring", models.CohortActive, day(-10), day(60))
	app := fx.CreateApplication(ctx, applicant.ID, inst.ID, models.ApplicationPending)
	mail := &mailer.DummySender{}
	handler := newTestHandler(t, db, mail)

	req := httptest.NewRequest("POST", "/applications/"+app.ID.Hex()+"/review",
		jsonBody(t, map[string]any{"approve": true, "cohort_id": cohort.ID.Hex()}))
	req = asUser(req, admin)
	req = testutil.WithChiURLParam(req, "id", app.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleReview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// Both sides of the membership edge were written, plus the role.
	users := userstore.New(db)
	u, err := users.GetByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.Role != models.RoleFellow {
		t.Errorf("role: got %q, want %q", u.Role, models.RoleFellow)
	}
	if len(u.CohortIDs) != 1 || u.CohortIDs[0] != cohort.ID {
		t.Errorf("cohort membership on user: got %v", u.CohortIDs)
	}

	co, err := cohortstore.New(db).GetByIDForInstitution(ctx, cohort.ID, inst.ID)
	if err != nil {
		t.Fatalf("load cohort failed: %v", err)
	}
	if len(co.FellowIDs) != 1 || co.FellowIDs[0] != applicant.ID {
		t.Errorf("fellow membership on cohort: got %v", co.FellowIDs)
	}

	if len(mail.Sent) != 1 {
		t.Errorf("sent %d emails, want 1 outcome notice", len(mail.Sent))
	}
}

func TestHandleReview_ApproveWithoutCohortJoinsInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	applicant := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", "", nil)
	app := fx.CreateApplication(ctx, applicant.ID, inst.ID, models.ApplicationPending)
	handler := newTestHandler(t, db, &mailer.DummySender{})

	req := httptest.NewRequest("POST", "/applications/"+app.ID.Hex()+"/review",
		jsonBody(t, map[string]any{"approve": true}))
	req = asUser(req, admin)
	req = testutil.WithChiURLParam(req, "id", app.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleReview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	fellow, err := userstore.New(db).GetByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("load approved fellow: %v", err)
	}
	if fellow.Role != models.RoleFellow {
		t.Errorf("expected role %q, got %q", models.RoleFellow, fellow.Role)
	}
	if fellow.InstitutionID == nil || *fellow.InstitutionID != inst.ID {
		t.Errorf("expected institution %s on the fellow, got %v", inst.ID.Hex(), fellow.InstitutionID)
	}
	if len(fellow.CohortIDs) != 0 {
		t.Errorf("expected no cohort memberships, got %v", fellow.CohortIDs)
	}
}

func TestHandleReview_SecondReviewConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "ada@acme.test")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@acme.test", models.RoleAdmin, &inst.ID)
	applicant := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", "", nil)
	app := fx.CreateApplication(ctx, applicant.ID, inst.ID, models.ApplicationPending)
	handler := newTestHandler(t, db, &mailer.DummySender{})

	send := func(body map[string]any) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/applications/"+app.ID.Hex()+"/review", jsonBody(t, body))
		req = asUser(req, admin)
		req = testutil.WithChiURLParam(req, "id", app.ID.Hex())
		rec := httptest.NewRecorder()
		handler.HandleReview(rec, req)
		return rec
	}

	if rec := send(map[string]any{"approve": false, "notes": "not this time"}); rec.Code != http.StatusOK {
		t.Fatalf("first review: expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if rec := send(map[string]any{"approve": false}); rec.Code != http.StatusConflict {
		t.Errorf("second review: expected %d, got %d", http.StatusConflict, rec.Code)
	}
}
