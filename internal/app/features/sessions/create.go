// internal/app/features/sessions/create.go
package sessions

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/gcal"
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

type createRequest struct {
	CohortID    string    `json:"cohort_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

const reconnectRemedy = "Reconnect the institution's Google account and try again."

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sessions                                                               |
| Admin schedules a session for a cohort. The attendee list is snapshotted     |
| from the cohort's fellows at this moment and never auto-synced. The          |
| calendar event (with Meet link) is created first; if that fails nothing is   |
| stored.                                                                      |
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
	if strings.TrimSpace(req.Title) == "" {
		uierrors.RenderValidation(w, r, "Session title is required.")
		return
	}
	now := time.Now().UTC()
	if err := checkTimes(now, req.StartTime, req.EndTime); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	cohortID, err := primitive.ObjectIDFromHex(req.CohortID)
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid cohort id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	cohort, err := h.Cohorts.GetByIDForInstitution(ctx, cohortID, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		uierrors.Render(w, r, apperr.NotFound("cohort"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session create: load cohort", err)
		return
	}
	if cohort.Status == models.CohortCompleted {
		uierrors.Render(w, r, apperr.Conflict("Cohort %q has already completed.", cohort.Name))
		return
	}

	inst, err := h.Institutions.GetByID(ctx, res.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session create: load institution", err)
		return
	}

	// Snapshot the cohort's fellows as invited attendees.
	fellows, err := h.Users.GetManyByIDs(ctx, cohort.FellowIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "session create: load fellows", err)
		return
	}
	attendees := make([]models.Attendee, 0, len(fellows))
	emails := make([]string, 0, len(fellows))
	for _, f := range fellows {
		attendees = append(attendees, models.Attendee{FellowID: f.ID, Status: models.AttendeeInvited})
		emails = append(emails, f.Email)
	}

	svc, err := h.Calendar.ForAccount(inst.GoogleRefreshToken)
	if err != nil {
		uierrors.Render(w, r, apperr.Dependency(err,
			"The institution's calendar is not connected.", reconnectRemedy))
		return
	}
	title := htmlsanitize.PlainText(req.Title)
	description := htmlsanitize.Sanitize(req.Description)
	event, err := svc.CreateEvent(ctx, gcal.EventInput{
		Title:          title,
		Description:    description,
		Start:          req.StartTime,
		End:            req.EndTime,
		AttendeeEmails: emails,
	})
	if err != nil {
		if gcal.IsPermissionDenied(err) {
			uierrors.Render(w, r, apperr.Dependency(err,
				"The calendar rejected the request.", reconnectRemedy))
			return
		}
		uierrors.Render(w, r, apperr.Dependency(err,
			"Could not create the calendar event.", "Try again shortly."))
		return
	}

	sess, err := h.Sessions.Create(ctx, models.Session{
		InstitutionID:   res.InstitutionID,
		CohortID:        cohortID,
		Title:           title,
		Description:     description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MeetingLink:     event.JoinLink,
		CalendarEventID: event.EventID,
		Attendees:       attendees,
	})
	if err != nil {
		// The event exists but the record does not; remove the orphan.
		notify.BestEffort(h.Log, "orphan calendar event cleanup", func() error {
			return svc.DeleteEvent(ctx, event.EventID)
		}, zap.String("event_id", event.EventID))
		h.ErrLog.LogServerError(w, r, "session create: insert", err)
		return
	}

	h.Log.Info("session scheduled",
		zap.String("session_id", sess.ID.Hex()),
		zap.String("cohort_id", cohortID.Hex()),
		zap.Int("attendees", len(attendees)))

	h.sendSessionNotices(emails, mailer.BuildSessionScheduledEmail, mailer.SessionNoticeData{
		SiteName:     h.SiteName,
		CohortName:   cohort.Name,
		SessionTitle: sess.Title,
		When:         formatWhen(sess.StartTime, sess.EndTime),
		MeetingLink:  sess.MeetingLink,
	})

	webjson.Write(w, http.StatusCreated, sess)
}

func checkTimes(now, start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("Start and end times are required.")
	}
	if !end.After(start) {
		return apperr.Validation("End time must be after start time.")
	}
	if start.Before(now) {
		return apperr.Validation("Sessions cannot be scheduled in the past.")
	}
	return nil
}

func formatWhen(start, end time.Time) string {
	return start.UTC().Format("Mon, 02 Jan 2006 15:04") + "-" + end.UTC().Format("15:04") + " UTC"
}

func (h *Handler) sendSessionNotices(emails []string, build func(mailer.SessionNoticeData) mailer.Email, data mailer.SessionNoticeData) {
	fns := make([]func() error, 0, len(emails))
	for _, email := range emails {
		email := email
		fns = append(fns, func() error {
			e := build(data)
			e.To = email
			return h.Mail.Send(e)
		})
	}
	notify.All(h.Log, "session notice email", fns,
		zap.String("session", data.SessionTitle))
}
