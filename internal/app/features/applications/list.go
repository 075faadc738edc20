// internal/app/features/applications/list.go
package applications

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/normalize"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /applications?status=pending                                             |
| Admin lists their institution's applications, optionally by status.          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	status := normalize.QueryParam(r.URL.Query().Get("status"))
	switch status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		uierrors.RenderValidation(w, r, "Unknown application status.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Applications.ListByInstitution(ctx, res.InstitutionID, status)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "application list", err)
		return
	}
	if list == nil {
		list = []models.Application{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"applications": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /applications/mine                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Applications.ListByFellow(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "application mine", err)
		return
	}
	if list == nil {
		list = []models.Application{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"applications": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /applications/{id}                                                       |
| Institution-scoped: another tenant's application reads as not found.         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid application id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.Applications.GetByIDForInstitution(ctx, id, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("application"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "application view", err)
		return
	}
	webjson.Write(w, http.StatusOK, app)
}
