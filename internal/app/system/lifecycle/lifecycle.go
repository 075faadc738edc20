// Package lifecycle holds the cohort date and status rules as pure
// functions, so the invariants can be tested without a clock or a database.
//
// Cohorts within an institution are strictly sequential: at most one is
// active at a time, ranges never overlap (inclusive on both ends), and a
// cohort created while another is active always starts out upcoming, even
// if its own dates would qualify it as active. Status only moves through
// the reconciliation pass (upcoming → active → completed).
package lifecycle

import (
	"sort"
	"time"

	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overlaps reports whether [aStart,aEnd] and [bStart,bEnd] intersect.
// Bounds are inclusive on both ends: a cohort ending the same day another
// begins counts as overlapping. Dates are day-granularity by convention.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	// a starts inside b, a ends inside b, or a fully contains b.
	startsInside := !aStart.Before(bStart) && !aStart.After(bEnd)
	endsInside := !aEnd.Before(bStart) && !aEnd.After(bEnd)
	contains := aStart.Before(bStart) && aEnd.After(bEnd)
	return startsInside || endsInside || contains
}

// CheckNewRange validates a proposed cohort range against the institution's
// existing active and upcoming cohorts. It returns a conflict error naming
// the offending cohort, or a validation error for an inverted range.
func CheckNewRange(start, end time.Time, existing []models.Cohort) error {
	if !end.After(start) {
		return apperr.Validation("End date must be after start date.")
	}
	for _, c := range existing {
		if c.Status == models.CohortActive && !start.After(c.EndDate) {
			return apperr.Conflict(
				"A new cohort must start after the current active cohort %q ends on %s.",
				c.Name, c.EndDate.Format("2006-01-02"))
		}
	}
	for _, c := range existing {
		if c.Status != models.CohortActive && c.Status != models.CohortUpcoming {
			continue
		}
		if Overlaps(start, end, c.StartDate, c.EndDate) {
			return apperr.Conflict(
				"The date range overlaps cohort %q (%s to %s).",
				c.Name, c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
		}
	}
	return nil
}

// InitialStatus computes the status a new cohort is created with.
// An institution with an active cohort always gets upcoming, regardless of
// the new cohort's own dates; it waits its turn for reconciliation.
func InitialStatus(now, start, end time.Time, hasActive bool) string {
	switch {
	case hasActive:
		return models.CohortUpcoming
	case !now.Before(start) && !now.After(end):
		return models.CohortActive
	case now.After(end):
		return models.CohortCompleted
	default:
		return models.CohortUpcoming
	}
}

// Plan is the set of transitions one reconciliation pass should apply.
// At most one completion and one activation per pass.
type Plan struct {
	Complete primitive.ObjectID // active cohort past its end date, or zero
	Activate primitive.ObjectID // upcoming cohort whose range contains now, or zero
}

// BuildPlan inspects an institution's cohorts and decides which transitions
// are due at the given instant. It is idempotent: applying the plan and
// rebuilding it yields an empty plan.
//
// An upcoming cohort is only activated when no cohort remains active after
// the completion step, which is what lets a cohort sit upcoming past its
// nominal start while its predecessor runs.
func BuildPlan(now time.Time, cohorts []models.Cohort) Plan {
	var plan Plan
	activeRemains := false
	for _, c := range cohorts {
		if c.Status != models.CohortActive {
			continue
		}
		if now.After(c.EndDate) {
			plan.Complete = c.ID
		} else {
			activeRemains = true
		}
	}
	if activeRemains {
		return plan
	}

	upcoming := make([]models.Cohort, 0, len(cohorts))
	for _, c := range cohorts {
		if c.Status == models.CohortUpcoming {
			upcoming = append(upcoming, c)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate.Before(upcoming[j].StartDate)
	})
	for _, c := range upcoming {
		if !now.Before(c.StartDate) && !now.After(c.EndDate) {
			plan.Activate = c.ID
			break
		}
	}
	return plan
}
