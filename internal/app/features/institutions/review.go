// internal/app/features/institutions/review.go
package institutions

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type reviewRequest struct {
	Approve bool `json:"approve"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /institutions/{id}/review                                               |
| Root admin approves or rejects a pending institution. The decision is        |
| terminal; a second review returns 409. On approval the admin user is         |
| promoted immediately if they already have an account (otherwise the          |
| promotion happens on their next sign-in).                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireRootAdmin(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid institution id.")
		return
	}

	var req reviewRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inst, err := h.Institutions.Review(ctx, id, req.Approve)
	switch err {
	case nil:
	case institutionstore.ErrAlreadyProcessed:
		uierrors.Render(w, r, apperr.Conflict("This institution has already been reviewed."))
		return
	case mongo.ErrNoDocuments:
		uierrors.Render(w, r, apperr.NotFound("institution"))
		return
	default:
		h.ErrLog.LogServerError(w, r, "review: update institution", err)
		return
	}

	h.Log.Info("institution reviewed",
		zap.String("institution_id", inst.ID.Hex()),
		zap.String("status", inst.Status),
		zap.String("reviewed_by", res.UserID.Hex()))

	adminName := inst.AdminEmail
	if req.Approve {
		// Promote the admin account now if it exists; a missing account is
		// fine, sign-in promotion covers it.
		u, err := h.Users.PromoteAdminByEmail(ctx, inst.AdminEmail, inst.ID)
		if err == nil {
			adminName = u.FullName
		} else if err != mongo.ErrNoDocuments {
			h.ErrLog.LogServerError(w, r, "review: promote admin", err)
			return
		}
	}

	data := mailer.InstitutionReviewData{
		SiteName:        h.SiteName,
		InstitutionName: inst.Name,
		AdminName:       adminName,
		DashboardLink:   h.BaseURL,
	}
	build := mailer.BuildInstitutionRejectedEmail
	if inst.Status == models.InstitutionApproved {
		build = mailer.BuildInstitutionApprovedEmail
	}
	notify.BestEffort(h.Log, "institution outcome email", func() error {
		return h.Mail.Send(withTo(build(data), inst.AdminEmail))
	}, zap.String("institution_id", inst.ID.Hex()))

	webjson.Write(w, http.StatusOK, inst)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /institutions/pending                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireRootAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Institutions.ListPending(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "pending: list institutions", err)
		return
	}
	if list == nil {
		list = []models.Institution{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"institutions": list})
}
