// internal/app/features/institutions/signup.go
package institutions

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type signupRequest struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /institutions/signup                                                    |
| A signed-in user requests the admin role for a new institution. The          |
| institution starts pending and waits for root-admin review; the caller's     |
| email becomes the admin email. Repeating the request while a signup is       |
| still pending (or after approval) returns the existing record instead of     |
| an error; a rejected signup may be restarted with a fresh request.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	var req signupRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		uierrors.RenderValidation(w, r, "Institution name is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "signup: load user", err)
		return
	}
	if u.Role == models.RoleFellow {
		uierrors.Render(w, r, apperr.Conflict("A fellow account cannot also run an institution."))
		return
	}

	// Idempotent on pending and approved: re-submitting is a read. A
	// rejected signup falls through so the user can start over.
	existing, err := h.Institutions.GetByAdminEmail(ctx, u.Email)
	switch {
	case err == nil && existing.Status != models.InstitutionRejected:
		webjson.Write(w, http.StatusOK, existing)
		return
	case err != nil && err != mongo.ErrNoDocuments:
		h.ErrLog.LogServerError(w, r, "signup: check existing institution", err)
		return
	}

	inst, err := h.Institutions.Create(ctx, models.Institution{
		Name:       req.Name,
		Logo:       req.Logo,
		Status:     models.InstitutionPending,
		AdminEmail: u.Email,
		// Copied so calendar/drive work right after approval, before the
		// admin runs the explicit workspace-connect flow.
		GoogleAccountEmail: u.Email,
		GoogleRefreshToken: u.GoogleRefreshToken,
	})
	if err == institutionstore.ErrDuplicateName {
		uierrors.Render(w, r, apperr.Conflict("An institution with this name already exists."))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "signup: create institution", err)
		return
	}

	h.Log.Info("institution signup received",
		zap.String("institution_id", inst.ID.Hex()),
		zap.String("admin_email", inst.AdminEmail))

	h.sendSignupNotices(inst, u.FullName)

	webjson.Write(w, http.StatusCreated, inst)
}

func (h *Handler) sendSignupNotices(inst models.Institution, adminName string) {
	data := mailer.InstitutionReviewData{
		SiteName:        h.SiteName,
		InstitutionName: inst.Name,
		AdminName:       adminName,
		DashboardLink:   h.BaseURL,
	}
	notify.BestEffort(h.Log, "institution pending email", func() error {
		return h.Mail.Send(withTo(mailer.BuildInstitutionPendingEmail(data), inst.AdminEmail))
	}, zap.String("institution_id", inst.ID.Hex()))

	fns := make([]func() error, 0, len(h.RootAdminEmails))
	for _, email := range h.RootAdminEmails {
		email := email
		fns = append(fns, func() error {
			return h.Mail.Send(withTo(mailer.BuildInstitutionReviewRequestEmail(data), email))
		})
	}
	notify.All(h.Log, "institution review request email", fns,
		zap.String("institution_id", inst.ID.Hex()))
}

func withTo(e mailer.Email, to string) mailer.Email {
	e.To = to
	return e
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /institutions/mine                                                       |
| Returns the institution tied to the caller's email, whatever its status.     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mine: load user", err)
		return
	}
	inst, err := h.Institutions.GetByAdminEmail(ctx, u.Email)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("institution"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mine: load institution", err)
		return
	}
	webjson.Write(w, http.StatusOK, inst)
}
