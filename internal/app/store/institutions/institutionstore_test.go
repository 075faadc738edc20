package institutions_test

import (
	"testing"

	"github.com/dalemusser/fellowhub/internal/app/store/institutions"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
)

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := institutions.New(db)
	inst := models.Institution{
		Name:       "Acme Institute",
		Status:     models.InstitutionPending,
		AdminEmail: "admin@acme.test",
	}
	if _, err := store.Create(ctx, inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Name comparison is case-insensitive via the folded name index.
	inst.Name = "ACME INSTITUTE"
	inst.AdminEmail = "other@acme.test"
	if _, err := store.Create(ctx, inst); err != institutions.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_Review_ApproveThenRejectIsBlocked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionPending, "admin@acme.test")
	store := institutions.New(db)

	approved, err := store.Review(ctx, inst.ID, true)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if approved.Status != models.InstitutionApproved {
		t.Errorf("status: got %q, want %q", approved.Status, models.InstitutionApproved)
	}

	// Approved and rejected are terminal.
	if _, err := store.Review(ctx, inst.ID, false); err != institutions.ErrAlreadyProcessed {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}

	got, err := store.GetByID(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.InstitutionApproved {
		t.Errorf("status after repeat review: got %q, want %q", got.Status, models.InstitutionApproved)
	}
}

func TestStore_ListPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateInstitution(ctx, "Pending One", models.InstitutionPending, "one@test")
	fx.CreateInstitution(ctx, "Pending Two", models.InstitutionPending, "two@test")
	fx.CreateInstitution(ctx, "Approved", models.InstitutionApproved, "three@test")
	store := institutions.New(db)

	list, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d pending institutions, want 2", len(list))
	}
	for _, inst := range list {
		if inst.Status != models.InstitutionPending {
			t.Errorf("non-pending institution %q in list", inst.Name)
		}
	}
}

func TestStore_SetGoogleCredential_EmptyTokenKept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Acme Institute", models.InstitutionApproved, "admin@acme.test")
	store := institutions.New(db)

	if err := store.SetGoogleCredential(ctx, inst.ID, "ops@acme.test", "refresh-token-1"); err != nil {
		t.Fatalf("SetGoogleCredential failed: %v", err)
	}

	// Google omits the refresh token on repeat consent; the stored one
	// must survive.
	if err := store.SetGoogleCredential(ctx, inst.ID, "ops@acme.test", ""); err != nil {
		t.Fatalf("second SetGoogleCredential failed: %v", err)
	}

	got, err := store.GetByID(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.GoogleRefreshToken != "refresh-token-1" {
		t.Errorf("refresh token: got %q, want %q", got.GoogleRefreshToken, "refresh-token-1")
	}
	if got.GoogleAccountEmail != "ops@acme.test" {
		t.Errorf("account email: got %q, want %q", got.GoogleAccountEmail, "ops@acme.test")
	}
}
