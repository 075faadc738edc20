// internal/app/features/sessions/list.go
package sessions

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sessions?cohort_id=…                                                    |
| Schedule for one cohort. Admins see any cohort of their institution;         |
| fellows only cohorts they are enrolled in.                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	cohortID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("cohort_id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "A valid cohort_id is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.canSeeCohort(ctx, res, cohortID) {
		uierrors.Render(w, r, apperr.NotFound("cohort"))
		return
	}

	list, err := h.Sessions.ListByCohort(ctx, cohortID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session list", err)
		return
	}
	if list == nil {
		list = []models.Session{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"sessions": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sessions/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid session id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if res.InstitutionID.IsZero() {
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	}
	sess, err := h.Sessions.GetByIDForInstitution(ctx, id, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session view", err)
		return
	}

	if res.Role == models.RoleFellow && !h.canSeeCohort(ctx, res, sess.CohortID) {
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	}
	webjson.Write(w, http.StatusOK, sess)
}

// canSeeCohort reports whether the caller may read the cohort's schedule:
// admins for any cohort of their institution, fellows only when enrolled.
func (h *Handler) canSeeCohort(ctx context.Context, res gates.Result, cohortID primitive.ObjectID) bool {
	switch res.Role {
	case models.RoleAdmin, models.RoleRootAdmin:
		_, err := h.Cohorts.GetByIDForInstitution(ctx, cohortID, res.InstitutionID)
		return err == nil
	case models.RoleFellow:
		u, err := h.Users.GetByID(ctx, res.UserID)
		if err != nil {
			return false
		}
		for _, cid := range u.CohortIDs {
			if cid == cohortID {
				return true
			}
		}
	}
	return false
}
