// Package gcal is the calendar capability: create, update, and delete
// Google Calendar events carrying a Meet join link. Events are created on
// the institution's connected Google account using its stored refresh
// token.
//
// Failure classification matters to callers: ErrNotConfigured and
// permission errors are hard failures for session creation and edits, but
// best-effort for deletes on cancel.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNotConfigured means the institution has no usable Google credential.
var ErrNotConfigured = errors.New("google calendar is not connected for this institution")

// IsPermissionDenied reports whether the Google API rejected the call for
// authorization reasons (revoked token, missing scope).
func IsPermissionDenied(err error) bool {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code == 401 || ge.Code == 403
	}
	return false
}

// EventInput describes an event to create or the target state of an update.
type EventInput struct {
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	AttendeeEmails []string
}

// EventResult identifies a created event and its Meet join link.
type EventResult struct {
	EventID  string
	JoinLink string
}

// Service is the calendar capability consumed by the session coordinator.
type Service interface {
	CreateEvent(ctx context.Context, in EventInput) (EventResult, error)
	UpdateEvent(ctx context.Context, eventID string, in EventInput) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// Factory builds a Service scoped to one institution's Google account.
type Factory struct {
	ClientID     string
	ClientSecret string

	// Override, when set, is returned from ForAccount regardless of
	// credentials. Tests use it to substitute a Fake.
	Override Service
}

// ForAccount returns a Service acting as the account behind refreshToken.
// Returns ErrNotConfigured when no token is stored.
func (f *Factory) ForAccount(refreshToken string) (Service, error) {
	if f != nil && f.Override != nil {
		return f.Override, nil
	}
	if f == nil || f.ClientID == "" || f.ClientSecret == "" || refreshToken == "" {
		return nil, ErrNotConfigured
	}
	cfg := &oauth2.Config{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	return &googleCalendar{cfg: cfg, refreshToken: refreshToken}, nil
}

type googleCalendar struct {
	cfg          *oauth2.Config
	refreshToken string
}

func (g *googleCalendar) client(ctx context.Context) (*calendar.Service, error) {
	ts := g.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: g.refreshToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service init: %w", err)
	}
	return svc, nil
}

func (g *googleCalendar) CreateEvent(ctx context.Context, in EventInput) (EventResult, error) {
	svc, err := g.client(ctx)
	if err != nil {
		return EventResult{}, err
	}

	ev := buildEvent(in)
	ev.ConferenceData = &calendar.ConferenceData{
		CreateRequest: &calendar.CreateConferenceRequest{
			RequestId: uuid.NewString(),
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
				Type: "hangoutsMeet",
			},
		},
	}

	created, err := svc.Events.Insert("primary", ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).Do()
	if err != nil {
		return EventResult{}, fmt.Errorf("calendar event insert: %w", err)
	}
	return EventResult{EventID: created.Id, JoinLink: created.HangoutLink}, nil
}

func (g *googleCalendar) UpdateEvent(ctx context.Context, eventID string, in EventInput) error {
	svc, err := g.client(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Events.Patch("primary", eventID, buildEvent(in)).
		SendUpdates("all").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("calendar event patch: %w", err)
	}
	return nil
}

func (g *googleCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	svc, err := g.client(ctx)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar event delete: %w", err)
	}
	return nil
}

func buildEvent(in EventInput) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(in.AttendeeEmails))
	for _, email := range in.AttendeeEmails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: in.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: in.End.Format(time.RFC3339)},
		Attendees:   attendees,
	}
}

// Fake is an in-memory Service for tests.
type Fake struct {
	Created   []EventInput
	Updated   map[string]EventInput
	Deleted   []string
	CreateErr error
	UpdateErr error
	DeleteErr error
	JoinLink  string
}

func (f *Fake) CreateEvent(ctx context.Context, in EventInput) (EventResult, error) {
	if f.CreateErr != nil {
		return EventResult{}, f.CreateErr
	}
	f.Created = append(f.Created, in)
	link := f.JoinLink
	if link == "" {
		link = "https://meet.example/fake"
	}
	return EventResult{EventID: fmt.Sprintf("evt-%d", len(f.Created)), JoinLink: link}, nil
}

func (f *Fake) UpdateEvent(ctx context.Context, eventID string, in EventInput) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if f.Updated == nil {
		f.Updated = make(map[string]EventInput)
	}
	f.Updated[eventID] = in
	return nil
}

func (f *Fake) DeleteEvent(ctx context.Context, eventID string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.Deleted = append(f.Deleted, eventID)
	return nil
}
