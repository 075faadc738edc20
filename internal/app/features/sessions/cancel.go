// internal/app/features/sessions/cancel.go
package sessions

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	sessionstore "github.com/dalemusser/fellowhub/internal/app/store/sessions"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
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

type cancelRequest struct {
	Reason string `json:"reason"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sessions/{id}/cancel                                                   |
| Admin cancels a scheduled session before it starts. A reason is required     |
| and goes into the attendee notice. The record is kept for history; removing  |
| the calendar event is best-effort.                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid session id.")
		return
	}

	var req cancelRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	reason := htmlsanitize.PlainText(req.Reason)
	if strings.TrimSpace(reason) == "" {
		uierrors.RenderValidation(w, r, "A cancellation reason is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Sessions.GetByIDForInstitution(ctx, id, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session cancel: load", err)
		return
	}
	if hasStarted(time.Now().UTC(), current.StartTime) {
		uierrors.Render(w, r, apperr.Conflict("A session that has started can no longer be cancelled."))
		return
	}

	sess, err := h.Sessions.CancelIfScheduled(ctx, id, res.UserID, reason)
	switch err {
	case nil:
	case sessionstore.ErrAlreadyCancelled:
		uierrors.Render(w, r, apperr.Conflict("This session has already been cancelled."))
		return
	case mongo.ErrNoDocuments:
		uierrors.Render(w, r, apperr.NotFound("session"))
		return
	default:
		h.ErrLog.LogServerError(w, r, "session cancel: store", err)
		return
	}

	h.Log.Info("session cancelled",
		zap.String("session_id", sess.ID.Hex()),
		zap.String("cancelled_by", res.UserID.Hex()))

	// Removing the event is best-effort; the attendee notice below is what
	// fellows rely on either way.
	notify.BestEffort(h.Log, "calendar event delete", func() error {
		inst, err := h.Institutions.GetByID(ctx, res.InstitutionID)
		if err != nil {
			return err
		}
		svc, err := h.Calendar.ForAccount(inst.GoogleRefreshToken)
		if err != nil {
			return err
		}
		return svc.DeleteEvent(ctx, sess.CalendarEventID)
	}, zap.String("session_id", sess.ID.Hex()))

	emails, err := h.attendeeEmails(ctx, sess)
	if err != nil {
		h.Log.Warn("session cancel: load attendees for notice failed", zap.Error(err))
	}
	cohortName := ""
	if co, err := h.Cohorts.GetByIDForInstitution(ctx, sess.CohortID, res.InstitutionID); err == nil {
		cohortName = co.Name
	}
	h.sendSessionNotices(emails, mailer.BuildSessionCancelledEmail, mailer.SessionNoticeData{
		SiteName:     h.SiteName,
		CohortName:   cohortName,
		SessionTitle: sess.Title,
		When:         formatWhen(sess.StartTime, sess.EndTime),
		Reason:       sess.CancellationReason,
	})

	webjson.Write(w, http.StatusOK, sess)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sessions/{id}/attendance                                               |
| Admin records attendance on the snapshot after the session has run.          |
*─────────────────────────────────────────────────────────────────────────────*/

type attendanceRequest struct {
	FellowID string `json:"fellow_id"`
	Status   string `json:"status"`
}

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid session id.")
		return
	}

	var req attendanceRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	fellowID, err := primitive.ObjectIDFromHex(req.FellowID)
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid fellow id.")
		return
	}
	switch req.Status {
	case models.AttendeeAttended, models.AttendeeMissed, models.AttendeeInvited:
	default:
		uierrors.RenderValidation(w, r, "Unknown attendance status.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Scope check before the write; the attendee filter handles the rest.
	if _, err := h.Sessions.GetByIDForInstitution(ctx, id, res.InstitutionID); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("session"))
			return
		}
		h.ErrLog.LogServerError(w, r, "attendance: load session", err)
		return
	}

	if err := h.Sessions.SetAttendeeStatus(ctx, id, fellowID, req.Status); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("attendee"))
			return
		}
		h.ErrLog.LogServerError(w, r, "attendance: update", err)
		return
	}

	webjson.Write(w, http.StatusOK, map[string]string{
		"fellow_id": req.FellowID,
		"status":    req.Status,
	})
}
