package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cohort(name, status string, start, end time.Time) models.Cohort {
	return models.Cohort{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{
			name:   "disjoint before",
			aStart: day(2025, 1, 1), aEnd: day(2025, 1, 31),
			bStart: day(2025, 2, 1), bEnd: day(2025, 2, 28),
			want: false,
		},
		{
			name:   "starts inside",
			aStart: day(2025, 2, 15), aEnd: day(2025, 3, 15),
			bStart: day(2025, 2, 1), bEnd: day(2025, 2, 28),
			want: true,
		},
		{
			name:   "ends inside",
			aStart: day(2025, 1, 15), aEnd: day(2025, 2, 15),
			bStart: day(2025, 2, 1), bEnd: day(2025, 2, 28),
			want: true,
		},
		{
			name:   "fully contains",
			aStart: day(2025, 1, 1), aEnd: day(2025, 3, 31),
			bStart: day(2025, 2, 1), bEnd: day(2025, 2, 28),
			want: true,
		},
		{
			name:   "fully contained",
			aStart: day(2025, 2, 10), aEnd: day(2025, 2, 20),
			bStart: day(2025, 2, 1), bEnd: day(2025, 2, 28),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

// A cohort ending exactly when another begins is a conflict: bounds are
// inclusive on both ends. This pins the behavior of the day-granularity
// date model.
func TestOverlaps_InclusiveBoundary(t *testing.T) {
	boundary := day(2025, 3, 31)
	if !Overlaps(boundary, day(2025, 6, 30), day(2025, 1, 1), boundary) {
		t.Error("range starting on another's end date must overlap")
	}
	if !Overlaps(day(2025, 1, 1), boundary, boundary, day(2025, 6, 30)) {
		t.Error("range ending on another's start date must overlap")
	}
}

func TestCheckNewRange_InvertedRange(t *testing.T) {
	err := CheckNewRange(day(2025, 3, 1), day(2025, 2, 1), nil)
	if err == nil {
		t.Fatal("expected error for end before start")
	}
	if apperr.From(err).Kind != apperr.KindValidation {
		t.Errorf("kind = %s, want validation", apperr.From(err).Kind)
	}

	// Equal dates are also invalid: end must be strictly after start.
	if CheckNewRange(day(2025, 3, 1), day(2025, 3, 1), nil) == nil {
		t.Error("expected error for zero-length range")
	}
}

func TestCheckNewRange_MustStartAfterActive(t *testing.T) {
	active := cohort("Spring 2025", models.CohortActive, day(2025, 1, 1), day(2025, 3, 31))

	// Starting on the active cohort's end date is still too early.
	err := CheckNewRange(day(2025, 3, 31), day(2025, 6, 30), []models.Cohort{active})
	if err == nil {
		t.Fatal("expected conflict for start on active end date")
	}
	ae := apperr.From(err)
	if ae.Kind != apperr.KindConflict {
		t.Errorf("kind = %s, want conflict", ae.Kind)
	}
	if !strings.Contains(ae.Message, "2025-03-31") {
		t.Errorf("message should name the active cohort's end date, got %q", ae.Message)
	}

	// The day after the active end is fine.
	if err := CheckNewRange(day(2025, 4, 1), day(2025, 6, 30), []models.Cohort{active}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckNewRange_OverlapNamesCohort(t *testing.T) {
	existing := []models.Cohort{
		cohort("Fall 2025", models.CohortUpcoming, day(2025, 9, 1), day(2025, 12, 15)),
	}
	err := CheckNewRange(day(2025, 8, 1), day(2025, 10, 1), existing)
	if err == nil {
		t.Fatal("expected overlap conflict")
	}
	if !strings.Contains(apperr.From(err).Message, "Fall 2025") {
		t.Errorf("message should name the conflicting cohort, got %q", err)
	}
}

func TestCheckNewRange_CompletedCohortsIgnored(t *testing.T) {
	existing := []models.Cohort{
		cohort("Old", models.CohortCompleted, day(2024, 1, 1), day(2024, 6, 30)),
	}
	if err := CheckNewRange(day(2024, 3, 1), day(2024, 9, 30), existing); err != nil {
		t.Errorf("completed cohorts should not block new ranges: %v", err)
	}
}

func TestInitialStatus(t *testing.T) {
	now := day(2025, 2, 15)
	start, end := day(2025, 1, 1), day(2025, 3, 31)

	if got := InitialStatus(now, start, end, false); got != models.CohortActive {
		t.Errorf("in-range with no active = %s, want active", got)
	}
	// An existing active cohort forces upcoming, even for an in-range cohort.
	if got := InitialStatus(now, start, end, true); got != models.CohortUpcoming {
		t.Errorf("in-range with active = %s, want upcoming", got)
	}
	if got := InitialStatus(now, day(2025, 3, 1), day(2025, 5, 31), false); got != models.CohortUpcoming {
		t.Errorf("future = %s, want upcoming", got)
	}
	if got := InitialStatus(now, day(2024, 1, 1), day(2024, 6, 30), false); got != models.CohortCompleted {
		t.Errorf("past = %s, want completed", got)
	}
	// Boundary days count as in range.
	if got := InitialStatus(start, start, end, false); got != models.CohortActive {
		t.Errorf("on start date = %s, want active", got)
	}
	if got := InitialStatus(end, start, end, false); got != models.CohortActive {
		t.Errorf("on end date = %s, want active", got)
	}
}

func TestBuildPlan_CompletesAndActivatesInOnePass(t *testing.T) {
	a := cohort("A", models.CohortActive, day(2025, 1, 1), day(2025, 3, 31))
	c := cohort("C", models.CohortUpcoming, day(2025, 4, 1), day(2025, 6, 30))
	now := day(2025, 4, 5)

	plan := BuildPlan(now, []models.Cohort{a, c})
	if plan.Complete != a.ID {
		t.Errorf("Complete = %v, want %v", plan.Complete, a.ID)
	}
	if plan.Activate != c.ID {
		t.Errorf("Activate = %v, want %v", plan.Activate, c.ID)
	}

	// Apply the plan and rebuild: nothing left to do.
	a.Status = models.CohortCompleted
	c.Status = models.CohortActive
	plan = BuildPlan(now, []models.Cohort{a, c})
	if !plan.Complete.IsZero() || !plan.Activate.IsZero() {
		t.Errorf("second pass should be a no-op, got %+v", plan)
	}
}

func TestBuildPlan_NoActivationWhilePredecessorActive(t *testing.T) {
	a := cohort("A", models.CohortActive, day(2025, 1, 1), day(2025, 3, 31))
	// B's range already contains now, but A is still running.
	b := cohort("B", models.CohortUpcoming, day(2025, 3, 1), day(2025, 5, 31))

	plan := BuildPlan(day(2025, 3, 15), []models.Cohort{a, b})
	if !plan.Complete.IsZero() {
		t.Errorf("A should not complete before its end date, got %v", plan.Complete)
	}
	if !plan.Activate.IsZero() {
		t.Errorf("B must wait for A to end, got activation %v", plan.Activate)
	}
}

func TestBuildPlan_ActivatesAtMostOne(t *testing.T) {
	b := cohort("B", models.CohortUpcoming, day(2025, 1, 1), day(2025, 12, 31))
	c := cohort("C", models.CohortUpcoming, day(2025, 2, 1), day(2025, 11, 30))

	plan := BuildPlan(day(2025, 6, 1), []models.Cohort{c, b})
	// Earliest start wins.
	if plan.Activate != b.ID {
		t.Errorf("Activate = %v, want earliest-starting %v", plan.Activate, b.ID)
	}
}

func TestBuildPlan_NothingEligible(t *testing.T) {
	b := cohort("B", models.CohortUpcoming, day(2025, 9, 1), day(2025, 12, 15))
	plan := BuildPlan(day(2025, 6, 1), []models.Cohort{b})
	if !plan.Complete.IsZero() || !plan.Activate.IsZero() {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}
