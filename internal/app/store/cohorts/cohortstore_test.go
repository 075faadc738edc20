package cohorts_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(offset int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, offset)
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := cohorts.New(db)

	first := models.Cohort{
		InstitutionID: inst.ID,
		Name:          "Spring 2026",
		StartDate:     day(10),
		EndDate:       day(100),
		Status:        models.CohortUpcoming,
	}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Same name, different case, non-overlapping dates: still a duplicate.
	second := first
	second.Name = "SPRING 2026"
	second.StartDate = day(200)
	second.EndDate = day(300)
	if _, err := store.Create(ctx, second); err != cohorts.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	// Same name under another institution is fine.
	other := fx.CreateInstitution(ctx, "Beta Institute", models.InstitutionApproved, "admin@beta.test")
	third := first
	third.InstitutionID = other.ID
	if _, err := store.Create(ctx, third); err != nil {
		t.Errorf("Create under other institution failed: %v", err)
	}
}

func TestStore_CompleteIfActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := cohorts.New(db)

	active := fx.CreateCohort(ctx, inst.ID, "Winter", models.CohortActive, day(-60), day(-1))

	changed, err := store.CompleteIfActive(ctx, active.ID)
	if err != nil {
		t.Fatalf("CompleteIfActive failed: %v", err)
	}
	if !changed {
		t.Fatal("expected transition to apply")
	}

	// Second call is a no-op: the status filter no longer matches.
	changed, err = store.CompleteIfActive(ctx, active.ID)
	if err != nil {
		t.Fatalf("second CompleteIfActive failed: %v", err)
	}
	if changed {
		t.Error("expected no-op on already completed cohort")
	}

	got, err := store.GetByIDForInstitution(ctx, active.ID, inst.ID)
	if err != nil {
		t.Fatalf("GetByIDForInstitution failed: %v", err)
	}
	if got.Status != models.CohortCompleted {
		t.Errorf("status: got %q, want %q", got.Status, models.CohortCompleted)
	}
}

func TestStore_ActivateIfUpcoming(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := cohorts.New(db)

	up := fx.CreateCohort(ctx, inst.ID, "Spring", models.CohortUpcoming, day(-1), day(60))
	done := fx.CreateCohort(ctx, inst.ID, "Autumn", models.CohortCompleted, day(-200), day(-100))

	changed, err := store.ActivateIfUpcoming(ctx, up.ID)
	if err != nil {
		t.Fatalf("ActivateIfUpcoming failed: %v", err)
	}
	if !changed {
		t.Fatal("expected upcoming cohort to activate")
	}

	// A completed cohort never reactivates.
	changed, err = store.ActivateIfUpcoming(ctx, done.ID)
	if err != nil {
		t.Fatalf("ActivateIfUpcoming on completed failed: %v", err)
	}
	if changed {
		t.Error("expected completed cohort to stay completed")
	}

	n, err := store.CountActive(ctx, inst.ID)
	if err != nil {
		t.Fatalf("CountActive failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountActive: got %d, want 1", n)
	}
}

func TestStore_ListNeedingReconcile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := cohorts.New(db)

	expired := fx.CreateCohort(ctx, inst.ID, "Expired", models.CohortActive, day(-60), day(-1))
	due := fx.CreateCohort(ctx, inst.ID, "Due", models.CohortUpcoming, day(-1), day(30))
	fx.CreateCohort(ctx, inst.ID, "Future", models.CohortUpcoming, day(40), day(90))
	fx.CreateCohort(ctx, inst.ID, "Done", models.CohortCompleted, day(-200), day(-100))

	list, err := store.ListNeedingReconcile(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListNeedingReconcile failed: %v", err)
	}

	want := map[primitive.ObjectID]bool{expired.ID: true, due.ID: true}
	if len(list) != len(want) {
		t.Fatalf("got %d cohorts, want %d", len(list), len(want))
	}
	for _, co := range list {
		if !want[co.ID] {
			t.Errorf("unexpected cohort %q in reconcile list", co.Name)
		}
	}
}

func TestStore_AddFellow_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := cohorts.New(db)

	co := fx.CreateCohort(ctx, inst.ID, "Spring", models.CohortActive, day(-1), day(60))
	fellowID := primitive.NewObjectID()

	if err := store.AddFellow(ctx, co.ID, fellowID); err != nil {
		t.Fatalf("AddFellow failed: %v", err)
	}
	if err := store.AddFellow(ctx, co.ID, fellowID); err != nil {
		t.Fatalf("second AddFellow failed: %v", err)
	}

	got, err := store.GetByIDForInstitution(ctx, co.ID, inst.ID)
	if err != nil {
		t.Fatalf("GetByIDForInstitution failed: %v", err)
	}
	if len(got.FellowIDs) != 1 {
		t.Errorf("FellowIDs: got %d entries, want 1", len(got.FellowIDs))
	}
}
