// internal/app/features/content/upload.go
package content

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fellowhub/internal/app/system/notify"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUploadBytes bounds multipart uploads (form fields plus file).
const maxUploadBytes = 100 << 20 // 100 MiB

const reconnectRemedy = "Reconnect the institution's Google account and try again."

/*─────────────────────────────────────────────────────────────────────────────*
| POST /contents (multipart)                                                   |
| Admin uploads a file for a cohort. Requires the cohort's storage folder to  |
| be provisioned; without it the upload fails with a dependency error rather  |
| than silently storing metadata with no file. The file is shared with the    |
| cohort's fellows best-effort after upload.                                   |
|                                                                              |
| Fields: cohort_id, title, type, description (optional), file                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		uierrors.RenderValidation(w, r, "Invalid or oversized multipart request.")
		return
	}

	cohortID, err := primitive.ObjectIDFromHex(r.FormValue("cohort_id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid cohort id.")
		return
	}
	title := htmlsanitize.PlainText(r.FormValue("title"))
	if strings.TrimSpace(title) == "" {
		uierrors.RenderValidation(w, r, "Title is required.")
		return
	}
	contentType := r.FormValue("type")
	switch contentType {
	case models.ContentDocument, models.ContentVideo, models.ContentPresentation, models.ContentOther:
	default:
		uierrors.RenderValidation(w, r, "Unknown content type.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		uierrors.RenderValidation(w, r, "A file is required.")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	cohort, err := h.Cohorts.GetByIDForInstitution(ctx, cohortID, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("cohort"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "content upload: load cohort", err)
		return
	}
	if cohort.DriveFolderID == "" {
		uierrors.Render(w, r, apperr.Dependency(gdrive.ErrNotConfigured,
			"The cohort's storage folder has not been provisioned.", reconnectRemedy))
		return
	}

	inst, err := h.Institutions.GetByID(ctx, res.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "content upload: load institution", err)
		return
	}
	svc, err := h.Drive.ForAccount(inst.GoogleRefreshToken)
	if err != nil {
		uierrors.Render(w, r, apperr.Dependency(err,
			"The institution's storage is not connected.", reconnectRemedy))
		return
	}

	uploaded, err := svc.UploadFile(ctx, cohort.DriveFolderID, header.Filename, mimeType, file)
	if err != nil {
		if gdrive.IsPermissionDenied(err) {
			uierrors.Render(w, r, apperr.Dependency(err,
				"The storage service rejected the upload.", reconnectRemedy))
			return
		}
		uierrors.Render(w, r, apperr.Dependency(err,
			"Could not upload the file.", "Try again shortly."))
		return
	}

	ct, err := h.Contents.Create(ctx, models.Content{
		CohortID:      cohortID,
		InstitutionID: res.InstitutionID,
		Title:         title,
		Description:   htmlsanitize.Sanitize(r.FormValue("description")),
		Type:          contentType,
		MimeType:      mimeType,
		DriveFileID:   uploaded.ID,
		ShareLink:     uploaded.Link,
		UploadedBy:    res.UserID,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "content upload: insert", err)
		return
	}

	h.Log.Info("content uploaded",
		zap.String("content_id", ct.ID.Hex()),
		zap.String("cohort_id", cohortID.Hex()),
		zap.String("type", ct.Type))

	// Give fellows read access; the share link works for them afterward.
	notify.BestEffort(h.Log, "content sharing", func() error {
		fellows, err := h.Users.GetManyByIDs(ctx, cohort.FellowIDs)
		if err != nil {
			return err
		}
		emails := make([]string, 0, len(fellows))
		for _, f := range fellows {
			emails = append(emails, f.Email)
		}
		return svc.ShareWithUsers(ctx, uploaded.ID, emails)
	}, zap.String("content_id", ct.ID.Hex()))

	webjson.Write(w, http.StatusCreated, ct)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /contents?cohort_id=…                                                    |
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

	list, err := h.Contents.ListByCohort(ctx, cohortID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "content list", err)
		return
	}
	if list == nil {
		list = []models.Content{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"contents": list})
}

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
