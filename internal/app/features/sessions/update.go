// internal/app/features/sessions/update.go
package sessions

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	sessionstore "github.com/dalemusser/fellowhub/internal/app/store/sessions"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/gcal"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type updateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /sessions/{id}                                                         |
| Admin edits a scheduled session that has not started yet. Omitted fields     |
| keep their values. The calendar event is updated first (hard dependency);    |
| attendees are notified with the list of what changed.                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid session id.")
		return
	}

	var req updateRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	current, err := h.Sessions.GetByIDForInstitution(ctx, id, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session update: load", err)
		return
	}

	now := time.Now().UTC()
	if current.Status == models.SessionCancelled {
		uierrors.Render(w, r, apperr.Conflict("This session has been cancelled."))
		return
	}
	if hasStarted(now, current.StartTime) {
		uierrors.Render(w, r, apperr.Conflict("A session that has started can no longer be edited."))
		return
	}

	target, changes := applyEdits(current, req)
	if len(changes) == 0 {
		webjson.Write(w, http.StatusOK, current)
		return
	}
	if !target.EndTime.After(target.StartTime) {
		uierrors.RenderValidation(w, r, "End time must be after start time.")
		return
	}
	if target.StartTime.Before(now) {
		uierrors.RenderValidation(w, r, "Sessions cannot be moved into the past.")
		return
	}

	inst, err := h.Institutions.GetByID(ctx, res.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session update: load institution", err)
		return
	}
	svc, err := h.Calendar.ForAccount(inst.GoogleRefreshToken)
	if err != nil {
		uierrors.Render(w, r, apperr.Dependency(err,
			"The institution's calendar is not connected.", reconnectRemedy))
		return
	}

	emails, err := h.attendeeEmails(ctx, current)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session update: load attendees", err)
		return
	}

	if err := svc.UpdateEvent(ctx, current.CalendarEventID, gcal.EventInput{
		Title:          target.Title,
		Description:    target.Description,
		Start:          target.StartTime,
		End:            target.EndTime,
		AttendeeEmails: emails,
	}); err != nil {
		if gcal.IsPermissionDenied(err) {
			uierrors.Render(w, r, apperr.Dependency(err,
				"The calendar rejected the update.", reconnectRemedy))
			return
		}
		uierrors.Render(w, r, apperr.Dependency(err,
			"Could not update the calendar event.", "Try again shortly."))
		return
	}

	sess, err := h.Sessions.UpdateIfScheduled(ctx, id, sessionstore.UpdateParams{
		Title:       target.Title,
		Description: target.Description,
		StartTime:   target.StartTime,
		EndTime:     target.EndTime,
	})
	switch err {
	case nil:
	case sessionstore.ErrAlreadyCancelled:
		uierrors.Render(w, r, apperr.Conflict("This session has been cancelled."))
		return
	case mongo.ErrNoDocuments:
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	default:
		h.ErrLog.LogServerError(w, r, "session update: store", err)
		return
	}

	h.Log.Info("session updated",
		zap.String("session_id", sess.ID.Hex()),
		zap.Strings("changes", changes))

	cohortName := ""
	if co, err := h.Cohorts.GetByIDForInstitution(ctx, sess.CohortID, res.InstitutionID); err == nil {
		cohortName = co.Name
	}
	h.sendSessionNotices(emails, mailer.BuildSessionUpdatedEmail, mailer.SessionNoticeData{
		SiteName:     h.SiteName,
		CohortName:   cohortName,
		SessionTitle: sess.Title,
		When:         formatWhen(sess.StartTime, sess.EndTime),
		MeetingLink:  sess.MeetingLink,
		Changes:      changes,
	})

	webjson.Write(w, http.StatusOK, sess)
}

// hasStarted reports whether the session's start time is behind now. At the
// exact start instant the session still counts as not started.
func hasStarted(now, start time.Time) bool {
	return now.After(start)
}

// applyEdits merges the request into the current session and produces the
// human-readable change list that goes into the update notice.
func applyEdits(current models.Session, req updateRequest) (models.Session, []string) {
	target := current
	var changes []string

	if req.Title != nil {
		title := htmlsanitize.PlainText(*req.Title)
		if title != "" && title != current.Title {
			target.Title = title
			changes = append(changes, "Title changed to "+title)
		}
	}
	if req.Description != nil {
		desc := htmlsanitize.Sanitize(*req.Description)
		if desc != current.Description {
			target.Description = desc
			changes = append(changes, "Description updated")
		}
	}
	if req.StartTime != nil && !req.StartTime.Equal(current.StartTime) {
		target.StartTime = *req.StartTime
		changes = append(changes, "Start moved to "+req.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 UTC"))
	}
	if req.EndTime != nil && !req.EndTime.Equal(current.EndTime) {
		target.EndTime = *req.EndTime
		changes = append(changes, "End moved to "+req.EndTime.UTC().Format("Mon, 02 Jan 2006 15:04 UTC"))
	}
	return target, changes
}

func (h *Handler) attendeeEmails(ctx context.Context, sess models.Session) ([]string, error) {
	ids := make([]primitive.ObjectID, 0, len(sess.Attendees))
	for _, a := range sess.Attendees {
		ids = append(ids, a.FellowID)
	}
	users, err := h.Users.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return emails, nil
}
