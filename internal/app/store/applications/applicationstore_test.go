package applications_test

import (
	"testing"

	"github.com/dalemusser/fellowhub/internal/app/store/applications"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_OnePerInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	fellow := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", models.RoleFellow, nil)
	store := applications.New(db)

	app := models.Application{
		FellowID:      fellow.ID,
		InstitutionID: inst.ID,
		Data: models.ApplicationData{
			FullName:   "Fran Fellow",
			Email:      "fran@example.com",
			Education:  "BSc",
			Experience: "Two years",
			Motivation: "Growth",
		},
	}
	created, err := store.Create(ctx, app)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.ApplicationPending {
		t.Errorf("status: got %q, want %q", created.Status, models.ApplicationPending)
	}

	// A second application to the same institution is rejected regardless
	// of the first one's status.
	if _, err := store.Create(ctx, app); err != applications.ErrDuplicateApplication {
		t.Errorf("expected ErrDuplicateApplication, got %v", err)
	}

	// A different institution is fine.
	other := fx.CreateInstitution(ctx, "Beta Institute", models.InstitutionApproved, "admin@beta.test")
	app.InstitutionID = other.ID
	if _, err := store.Create(ctx, app); err != nil {
		t.Errorf("Create at other institution failed: %v", err)
	}
}

func TestStore_Review_TerminalStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	fellow := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", models.RoleFellow, nil)
	admin := fx.CreateUser(ctx, "Ada Admin", "admin@acme.test", models.RoleAdmin, &inst.ID)
	app := fx.CreateApplication(ctx, fellow.ID, inst.ID, models.ApplicationPending)
	store := applications.New(db)

	cohortID := primitive.NewObjectID()
	reviewed, err := store.Review(ctx, app.ID, inst.ID, applications.ReviewParams{
		Approve:    true,
		ReviewerID: admin.ID,
		Notes:      "strong application",
		CohortID:   &cohortID,
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if reviewed.Status != models.ApplicationApproved {
		t.Errorf("status: got %q, want %q", reviewed.Status, models.ApplicationApproved)
	}
	if reviewed.CohortID == nil || *reviewed.CohortID != cohortID {
		t.Error("expected cohort id to be recorded on approval")
	}
	if reviewed.ReviewedAt == nil {
		t.Error("expected reviewed_at to be set")
	}

	// The decision is terminal: a second review cannot flip it.
	_, err = store.Review(ctx, app.ID, inst.ID, applications.ReviewParams{
		Approve:    false,
		ReviewerID: admin.ID,
	})
	if err != applications.ErrAlreadyReviewed {
		t.Errorf("expected ErrAlreadyReviewed, got %v", err)
	}

	got, err := store.GetByIDForInstitution(ctx, app.ID, inst.ID)
	if err != nil {
		t.Fatalf("GetByIDForInstitution failed: %v", err)
	}
	if got.Status != models.ApplicationApproved {
		t.Errorf("status after repeat review: got %q, want %q", got.Status, models.ApplicationApproved)
	}
}

func TestStore_Review_WrongInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	fellow := fx.CreateUser(ctx, "Fran Fellow", "fran@example.com", models.RoleFellow, nil)
	app := fx.CreateApplication(ctx, fellow.ID, inst.ID, models.ApplicationPending)
	store := applications.New(db)

	// An admin of another institution cannot see or review it.
	_, err := store.Review(ctx, app.ID, primitive.NewObjectID(), applications.ReviewParams{
		Approve:    true,
		ReviewerID: primitive.NewObjectID(),
	})
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
