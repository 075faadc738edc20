// internal/app/features/cohorts/create.go
package cohorts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"github.com/dalemusser/fellowhub/internal/app/system/lifecycle"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cohorts                                                                |
| Admin creates a cohort. The date range must not overlap any active or        |
| upcoming cohort (inclusive bounds), and must start after the active          |
| cohort's end. While another cohort is active the new one always starts       |
| upcoming, whatever its dates. A storage folder is provisioned best-effort.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var req createRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		uierrors.RenderValidation(w, r, "Cohort name is required.")
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		uierrors.RenderValidation(w, r, "Start and end dates are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Cohorts.ListByStatuses(ctx, res.InstitutionID,
		models.CohortActive, models.CohortUpcoming)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "cohort create: list cohorts", err)
		return
	}
	if err := lifecycle.CheckNewRange(req.StartDate, req.EndDate, existing); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	hasActive := false
	for _, c := range existing {
		if c.Status == models.CohortActive {
			hasActive = true
			break
		}
	}
	status := lifecycle.InitialStatus(time.Now().UTC(), req.StartDate, req.EndDate, hasActive)

	co, err := h.Cohorts.Create(ctx, models.Cohort{
		InstitutionID: res.InstitutionID,
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        status,
	})
	if err == cohortstore.ErrDuplicateName {
		uierrors.Render(w, r, apperr.Conflict("A cohort named %q already exists.", req.Name))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "cohort create: insert", err)
		return
	}

	h.Log.Info("cohort created",
		zap.String("cohort_id", co.ID.Hex()),
		zap.String("institution_id", res.InstitutionID.Hex()),
		zap.String("status", co.Status))

	h.provisionFolder(ctx, &co)

	webjson.Write(w, http.StatusCreated, co)
}

// provisionFolder creates the cohort's storage folder on the institution's
// connected account. Best-effort: a missing credential or a storage failure
// leaves the cohort usable, and content upload reports the gap later.
func (h *Handler) provisionFolder(ctx context.Context, co *models.Cohort) {
	notify.BestEffort(h.Log, "cohort folder provisioning", func() error {
		inst, err := h.Institutions.GetByID(ctx, co.InstitutionID)
		if err != nil {
			return err
		}
		svc, err := h.Drive.ForAccount(inst.GoogleRefreshToken)
		if err != nil {
			return err
		}

		parentID := inst.DriveRootFolderID
		if parentID == "" {
			root, err := svc.CreateFolder(ctx, inst.Name, "")
			if err != nil {
				return fmt.Errorf("root folder: %w", err)
			}
			if err := h.Institutions.SetDriveRoot(ctx, inst.ID, root.ID); err != nil {
				return err
			}
			parentID = root.ID
		}

		folder, err := svc.CreateFolder(ctx, co.Name, parentID)
		if err != nil {
			if gdrive.IsPermissionDenied(err) {
				return fmt.Errorf("storage permission denied; reconnect the Google account: %w", err)
			}
			return err
		}
		if err := h.Cohorts.SetDriveFolder(ctx, co.ID, folder.ID, folder.Link); err != nil {
			return err
		}
		co.DriveFolderID = folder.ID
		co.DriveFolderLink = folder.Link
		return nil
	}, zap.String("cohort_id", co.ID.Hex()))
}
