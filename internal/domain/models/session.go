// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session statuses. Cancelled is terminal; a session whose start time has
// passed can no longer be edited or cancelled.
const (
	SessionScheduled = "scheduled"
	SessionCancelled = "cancelled"
)

// Attendee statuses.
const (
	AttendeeInvited  = "invited"
	AttendeeAttended = "attended"
	AttendeeMissed   = "missed"
)

// Attendee is one fellow invited to a session. The attendee list is
// snapshotted from the cohort's fellows at creation time and not auto-synced
// afterward.
type Attendee struct {
	FellowID primitive.ObjectID `bson:"fellow_id" json:"fellow_id"`
	Status   string             `bson:"status" json:"status"`
}

// Session is a scheduled cohort meeting backed by a Google Calendar event
// with a Meet join link. Cancelled sessions are retained for history.
type Session struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	CohortID      primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`

	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	StartTime   time.Time `bson:"start_time" json:"start_time"`
	EndTime     time.Time `bson:"end_time" json:"end_time"`

	MeetingLink     string `bson:"meeting_link,omitempty" json:"meeting_link,omitempty"`
	CalendarEventID string `bson:"calendar_event_id,omitempty" json:"-"`

	Attendees []Attendee `bson:"attendees" json:"attendees"`
	Status    string     `bson:"status" json:"status"`

	CancellationReason string              `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelledBy        *primitive.ObjectID `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
