// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateInstitution creates a test institution with the given name and
// status. Returns the created institution with its generated ID.
func (f *Fixtures) CreateInstitution(ctx context.Context, name, status, adminEmail string) models.Institution {
	f.t.Helper()

	now := time.Now().UTC()
	inst := models.Institution{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Status:     status,
		AdminEmail: adminEmail,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("institutions").InsertOne(ctx, inst); err != nil {
		f.t.Fatalf("failed to create test institution: %v", err)
	}
	return inst
}

// CreateUser creates a test user with the given parameters. instID may be
// nil for users not yet attached to an institution.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, instID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		FullName:      fullName,
		FullNameCI:    text.Fold(fullName),
		Email:         email,
		Role:          role,
		InstitutionID: instID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateCohort creates a test cohort with the given status and date range.
// Any fellowIDs are enrolled on both sides of the membership edge: the
// cohort's fellow list and each user's cohort_ids.
func (f *Fixtures) CreateCohort(ctx context.Context, instID primitive.ObjectID, name, status string, start, end time.Time, fellowIDs ...primitive.ObjectID) models.Cohort {
	f.t.Helper()

	now := time.Now().UTC()
	if fellowIDs == nil {
		fellowIDs = []primitive.ObjectID{}
	}
	co := models.Cohort{
		ID:            primitive.NewObjectID(),
		InstitutionID: instID,
		Name:          name,
		NameCI:        text.Fold(name),
		StartDate:     start,
		EndDate:       end,
		Status:        status,
		FellowIDs:     fellowIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("cohorts").InsertOne(ctx, co); err != nil {
		f.t.Fatalf("failed to create test cohort: %v", err)
	}
	if len(fellowIDs) > 0 {
		_, err := f.db.Collection("users").UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": fellowIDs}},
			bson.M{"$addToSet": bson.M{"cohort_ids": co.ID}})
		if err != nil {
			f.t.Fatalf("failed to enroll test fellows: %v", err)
		}
	}
	return co
}

// CreateSession creates a test session in the given status and time window.
// Any attendeeIDs are snapshotted as invited attendees.
func (f *Fixtures) CreateSession(ctx context.Context, instID, cohortID primitive.ObjectID, title, status string, start, end time.Time, attendeeIDs ...primitive.ObjectID) models.Session {
	f.t.Helper()

	attendees := make([]models.Attendee, 0, len(attendeeIDs))
	for _, id := range attendeeIDs {
		attendees = append(attendees, models.Attendee{FellowID: id, Status: models.AttendeeInvited})
	}
	now := time.Now().UTC()
	sess := models.Session{
		ID:              primitive.NewObjectID(),
		InstitutionID:   instID,
		CohortID:        cohortID,
		Title:           title,
		StartTime:       start,
		EndTime:         end,
		MeetingLink:     "https://meet.example/fixture",
		CalendarEventID: "event-fixture",
		Attendees:       attendees,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("sessions").InsertOne(ctx, sess); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return sess
}

// CreateApplication creates a test application in the given status.
func (f *Fixtures) CreateApplication(ctx context.Context, fellowID, instID primitive.ObjectID, status string) models.Application {
	f.t.Helper()

	app := models.Application{
		ID:            primitive.NewObjectID(),
		FellowID:      fellowID,
		InstitutionID: instID,
		Status:        status,
		Data: models.ApplicationData{
			FullName:   "Test Fellow",
			Email:      "fellow@example.com",
			Education:  "BSc Testing",
			Experience: "Three years of integration tests",
			Motivation: "To learn",
		},
		SubmittedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}
