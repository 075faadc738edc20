// internal/app/features/applications/review.go
package applications

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	applicationstore "github.com/dalemusser/fellowhub/internal/app/store/applications"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/txn"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type applicationReviewRequest struct {
	Approve  bool   `json:"approve"`
	CohortID string `json:"cohort_id,omitempty"` // optional on approval
	Notes    string `json:"notes,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /applications/{id}/review                                               |
| Admin approves or rejects a pending application. The decision is terminal.   |
| Approval enrolls the fellow: both sides of the membership edge (when a       |
| cohort is chosen) plus the role change are written in one transaction, with  |
| the status flip as the concurrency gate. Without a cohort the fellow joins   |
| the institution only and can be assigned to a cohort later.                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid application id.")
		return
	}

	var req applicationReviewRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var cohort models.Cohort
	var cohortID *primitive.ObjectID
	if req.Approve && req.CohortID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CohortID)
		if err != nil {
			uierrors.RenderValidation(w, r, "Invalid cohort id.")
			return
		}
		cohort, err = h.Cohorts.GetByIDForInstitution(ctx, cid, res.InstitutionID)
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("cohort"))
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "review: load cohort", err)
			return
		}
		if cohort.Status == models.CohortCompleted {
			uierrors.Render(w, r, apperr.Conflict("Cohort %q has already completed.", cohort.Name))
			return
		}
		cohortID = &cid
	}

	params := applicationstore.ReviewParams{
		Approve:    req.Approve,
		ReviewerID: res.UserID,
		Notes:      htmlsanitize.Sanitize(req.Notes),
		CohortID:   cohortID,
	}

	var app models.Application
	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		var err error
		app, err = h.Applications.Review(ctx, appID, res.InstitutionID, params)
		if err != nil {
			return err
		}
		if !req.Approve {
			return nil
		}
		// Enrollment: both sides of the membership edge, then the role.
		if cohortID != nil {
			if err := h.Cohorts.AddFellow(ctx, *cohortID, app.FellowID); err != nil {
				return err
			}
			if err := h.Users.AddToCohort(ctx, app.FellowID, *cohortID); err != nil {
				return err
			}
		}
		return h.Users.SetInstitution(ctx, app.FellowID, res.InstitutionID, models.RoleFellow)
	})
	switch err {
	case nil:
	case applicationstore.ErrAlreadyReviewed:
		uierrors.Render(w, r, apperr.Conflict("This application has already been reviewed."))
		return
	case mongo.ErrNoDocuments:
		uierrors.Render(w, r, apperr.NotFound("application"))
		return
	default:
		h.ErrLog.LogServerError(w, r, "review: apply decision", err)
		return
	}

	h.Log.Info("application reviewed",
		zap.String("application_id", app.ID.Hex()),
		zap.String("status", app.Status),
		zap.String("reviewed_by", res.UserID.Hex()))

	instName := ""
	if inst, err := h.Institutions.GetByID(ctx, res.InstitutionID); err == nil {
		instName = inst.Name
	}
	h.sendOutcomeNotice(app, instName, cohort.Name)

	webjson.Write(w, http.StatusOK, app)
}

func (h *Handler) sendOutcomeNotice(app models.Application, instName, cohortName string) {
	notify.BestEffort(h.Log, "application outcome email", func() error {
		return h.Mail.Send(withTo(mailer.BuildApplicationOutcomeEmail(mailer.ApplicationOutcomeData{
			SiteName:        h.SiteName,
			FellowName:      app.Data.FullName,
			InstitutionName: instName,
			Approved:        app.Status == models.ApplicationApproved,
			CohortName:      cohortName,
			Notes:           app.ReviewNotes,
			DashboardLink:   h.BaseURL,
		}), app.Data.Email))
	}, zap.String("application_id", app.ID.Hex()))
}
