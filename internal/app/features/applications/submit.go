// internal/app/features/applications/submit.go
package applications

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	applicationstore "github.com/dalemusser/fellowhub/internal/app/store/applications"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type submitRequest struct {
	InstitutionID string `json:"institution_id"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone,omitempty"`
	Education     string `json:"education"`
	Experience    string `json:"experience"`
	Motivation    string `json:"motivation"`
	LinkedIn      string `json:"linkedin,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /applications                                                           |
| A signed-in user applies to an institution's fellowship. One application     |
| per (fellow, institution) pair ever; the institution must be approved.       |
| Free-text fields are sanitized before storage.                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	if res.Role == models.RoleAdmin || res.Role == models.RoleRootAdmin {
		uierrors.Render(w, r, apperr.Conflict("Admin accounts cannot apply for fellowships."))
		return
	}

	var req submitRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	instID, err := primitive.ObjectIDFromHex(req.InstitutionID)
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid institution id.")
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		uierrors.RenderValidation(w, r, "Full name is required.")
		return
	}
	if strings.TrimSpace(req.Motivation) == "" {
		uierrors.RenderValidation(w, r, "Motivation is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inst, err := h.Institutions.GetByID(ctx, instID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("institution"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "submit: load institution", err)
		return
	}
	if inst.Status != models.InstitutionApproved {
		uierrors.Render(w, r, apperr.NotFound("institution"))
		return
	}

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "submit: load user", err)
		return
	}

	app, err := h.Applications.Create(ctx, models.Application{
		FellowID:      res.UserID,
		InstitutionID: instID,
		Data: models.ApplicationData{
			FullName:   htmlsanitize.PlainText(req.FullName),
			Email:      u.Email,
			Phone:      htmlsanitize.PlainText(req.Phone),
			Education:  htmlsanitize.Sanitize(req.Education),
			Experience: htmlsanitize.Sanitize(req.Experience),
			Motivation: htmlsanitize.Sanitize(req.Motivation),
			LinkedIn:   htmlsanitize.PlainText(req.LinkedIn),
		},
	})
	if err == applicationstore.ErrDuplicateApplication {
		uierrors.Render(w, r, apperr.Conflict("You have already applied to %s.", inst.Name))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "submit: create application", err)
		return
	}

	h.Log.Info("application submitted",
		zap.String("application_id", app.ID.Hex()),
		zap.String("institution_id", instID.Hex()),
		zap.String("fellow_id", res.UserID.Hex()))

	h.sendSubmitNotices(ctx, app, inst, u)

	webjson.Write(w, http.StatusCreated, app)
}

func (h *Handler) sendSubmitNotices(ctx context.Context, app models.Application, inst models.Institution, applicant *models.User) {
	data := mailer.ApplicationReceivedData{
		SiteName:        h.SiteName,
		InstitutionName: inst.Name,
		ApplicantName:   applicant.FullName,
		DashboardLink:   h.BaseURL,
	}
	notify.BestEffort(h.Log, "application receipt email", func() error {
		return h.Mail.Send(withTo(mailer.BuildApplicationReceivedEmail(data), applicant.Email))
	}, zap.String("application_id", app.ID.Hex()))

	admins, err := h.Users.ListAdminsByInstitution(ctx, inst.ID)
	if err != nil {
		h.Log.Warn("application admin notice: list admins failed", zap.Error(err))
		return
	}
	fns := make([]func() error, 0, len(admins))
	for _, a := range admins {
		to := a.Email
		fns = append(fns, func() error {
			return h.Mail.Send(withTo(mailer.BuildApplicationReceivedEmail(data), to))
		})
	}
	notify.All(h.Log, "application admin notice email", fns,
		zap.String("application_id", app.ID.Hex()))
}

func withTo(e mailer.Email, to string) mailer.Email {
	e.To = to
	return e
}
