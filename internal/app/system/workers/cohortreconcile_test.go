package workers_test

import (
	"testing"
	"time"

	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/workers"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func day(offset int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, offset)
}

func TestRunOnce_CompletesAndActivates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")

	// Active cohort past its end date, and an upcoming one whose start
	// date has arrived: one pass hands off from the first to the second.
	expired := fx.CreateCohort(ctx, inst.ID, "Winter", models.CohortActive, day(-90), day(-1))
	due := fx.CreateCohort(ctx, inst.ID, "Spring", models.CohortUpcoming, day(0), day(90))
	future := fx.CreateCohort(ctx, inst.ID, "Autumn", models.CohortUpcoming, day(100), day(190))

	store := cohortstore.New(db)
	rec := workers.NewCohortReconciler(store, zap.NewNop(), time.Hour)

	res, err := rec.RunOnce(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if res.Completed != 1 {
		t.Errorf("Completed: got %d, want 1", res.Completed)
	}
	if res.Activated != 1 {
		t.Errorf("Activated: got %d, want 1", res.Activated)
	}

	assertStatus(t, store, inst, expired.ID, models.CohortCompleted)
	assertStatus(t, store, inst, due.ID, models.CohortActive)
	assertStatus(t, store, inst, future.ID, models.CohortUpcoming)
}

func TestRunOnce_NeverTwoActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")

	// The active cohort still has time left, but an upcoming cohort's
	// start date has arrived. Activation must wait until the active one
	// completes.
	running := fx.CreateCohort(ctx, inst.ID, "Current", models.CohortActive, day(-30), day(30))
	due := fx.CreateCohort(ctx, inst.ID, "Next", models.CohortUpcoming, day(-1), day(60))

	store := cohortstore.New(db)
	rec := workers.NewCohortReconciler(store, zap.NewNop(), time.Hour)

	res, err := rec.RunOnce(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if res.Activated != 0 {
		t.Errorf("Activated: got %d, want 0", res.Activated)
	}

	assertStatus(t, store, inst, running.ID, models.CohortActive)
	assertStatus(t, store, inst, due.ID, models.CohortUpcoming)

	n, err := store.CountActive(ctx, inst.ID)
	if err != nil {
		t.Fatalf("CountActive failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountActive: got %d, want 1", n)
	}
}

func TestRunOnce_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	fx.CreateCohort(ctx, inst.ID, "Winter", models.CohortActive, day(-90), day(-1))

	store := cohortstore.New(db)
	rec := workers.NewCohortReconciler(store, zap.NewNop(), time.Hour)

	if _, err := rec.RunOnce(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}
	res, err := rec.RunOnce(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}
	if res.Completed != 0 || res.Activated != 0 {
		t.Errorf("second pass changed state: %+v", res)
	}
}

func assertStatus(t *testing.T, store *cohortstore.Store, inst models.Institution, id primitive.ObjectID, want string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	co, err := store.GetByIDForInstitution(ctx, id, inst.ID)
	if err != nil {
		t.Fatalf("GetByIDForInstitution failed: %v", err)
	}
	if co.Status != want {
		t.Errorf("cohort %q status: got %q, want %q", co.Name, co.Status, want)
	}
}
