// internal/app/features/institutions/create.go
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
	"github.com/dalemusser/fellowhub/internal/app/system/normalize"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createRequest struct {
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email"`
	Logo       string `json:"logo,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /institutions                                                           |
| Root admin creates an institution directly; it skips the review queue and    |
| is approved immediately. The admin user is promoted if they already exist,   |
| or created as a placeholder that activates when they first sign in with      |
| Google.                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireRootAdmin(w, r)
	if !res.OK {
		return
	}

	var req createRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		uierrors.RenderValidation(w, r, "Institution name is required.")
		return
	}
	email := normalize.Email(req.AdminEmail)
	if email == "" || !strings.Contains(email, "@") {
		uierrors.RenderValidation(w, r, "A valid admin email is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The email must not already run another institution. A rejected signup
	// does not count as running one; its owner can still be set up directly.
	existing, err := h.Institutions.GetByAdminEmail(ctx, email)
	switch {
	case err == nil && existing.Status != models.InstitutionRejected:
		uierrors.Render(w, r, apperr.Conflict(
			"%s is already the admin email of institution %q.", email, existing.Name))
		return
	case err != nil && err != mongo.ErrNoDocuments:
		h.ErrLog.LogServerError(w, r, "create: check admin email", err)
		return
	}

	adminUser, err := h.Users.GetByEmail(ctx, email)
	if err != nil && err != mongo.ErrNoDocuments {
		h.ErrLog.LogServerError(w, r, "create: load admin user", err)
		return
	}
	if adminUser != nil && adminUser.Role == models.RoleFellow {
		uierrors.Render(w, r, apperr.Conflict("%s belongs to a fellow account.", email))
		return
	}

	inst, err := h.Institutions.Create(ctx, models.Institution{
		Name:       req.Name,
		Logo:       req.Logo,
		Status:     models.InstitutionApproved,
		AdminEmail: email,
	})
	if err == institutionstore.ErrDuplicateName {
		uierrors.Render(w, r, apperr.Conflict("An institution with this name already exists."))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create: insert institution", err)
		return
	}

	adminName := email
	if adminUser != nil {
		if err := h.Users.SetInstitution(ctx, adminUser.ID, inst.ID, models.RoleAdmin); err != nil {
			h.ErrLog.LogServerError(w, r, "create: promote admin", err)
			return
		}
		adminName = adminUser.FullName
	} else {
		// Placeholder so the account exists before first sign-in; the Google
		// profile fills in the rest via the OAuth upsert.
		if _, err := h.Users.Create(ctx, models.User{
			Email:         email,
			Role:          models.RoleAdmin,
			InstitutionID: &inst.ID,
		}); err != nil {
			h.ErrLog.LogServerError(w, r, "create: placeholder admin", err)
			return
		}
	}

	h.Log.Info("institution created by root admin",
		zap.String("institution_id", inst.ID.Hex()),
		zap.String("admin_email", email),
		zap.String("created_by", res.UserID.Hex()))

	notify.BestEffort(h.Log, "admin welcome email", func() error {
		return h.Mail.Send(withTo(mailer.BuildAdminWelcomeEmail(mailer.AdminWelcomeData{
			SiteName:        h.SiteName,
			InstitutionName: inst.Name,
			AdminName:       adminName,
			DashboardLink:   h.BaseURL,
		}), email))
	}, zap.String("institution_id", inst.ID.Hex()))

	webjson.Write(w, http.StatusCreated, inst)
}
