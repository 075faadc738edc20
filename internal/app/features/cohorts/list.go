// internal/app/features/cohorts/list.go
package cohorts

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
| GET /cohorts                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Cohorts.ListByInstitution(ctx, res.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "cohort list", err)
		return
	}
	if list == nil {
		list = []models.Cohort{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"cohorts": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /cohorts/{id}                                                            |
| Admins see any cohort of their institution; fellows only cohorts they are   |
| enrolled in. Anything else reads as not found, including other tenants'     |
| cohorts.                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid cohort id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch res.Role {
	case models.RoleAdmin, models.RoleRootAdmin:
		co, err := h.Cohorts.GetByIDForInstitution(ctx, id, res.InstitutionID)
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("cohort"))
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "cohort view", err)
			return
		}
		webjson.Write(w, http.StatusOK, co)
	case models.RoleFellow:
		u, err := h.Users.GetByID(ctx, res.UserID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "cohort view: load user", err)
			return
		}
		for _, cid := range u.CohortIDs {
			if cid == id {
				co, err := h.Cohorts.GetByIDForInstitution(ctx, id, *u.InstitutionID)
				if err != nil {
					h.ErrLog.LogServerError(w, r, "cohort view: load cohort", err)
					return
				}
				webjson.Write(w, http.StatusOK, co)
				return
			}
		}
		uierrors.Render(w, r, apperr.NotFound("cohort"))
	default:
		uierrors.Render(w, r, apperr.NotFound("cohort"))
	}
}
