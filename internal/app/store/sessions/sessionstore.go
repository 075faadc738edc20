// internal/app/store/sessions/sessionstore.go
package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrAlreadyCancelled is returned when editing or cancelling a session that
// has already been cancelled. Cancellation is terminal.
var ErrAlreadyCancelled = errors.New("this session has already been cancelled")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

func (s *Store) Create(ctx context.Context, sess models.Session) (models.Session, error) {
	now := time.Now().UTC()
	sess.ID = primitive.NewObjectID()
	sess.Status = models.SessionScheduled
	if sess.Attendees == nil {
		sess.Attendees = []models.Attendee{}
	}
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// GetByIDForInstitution scopes the lookup to the caller's institution.
func (s *Store) GetByIDForInstitution(ctx context.Context, id, institutionID primitive.ObjectID) (models.Session, error) {
	var sess models.Session
	err := s.c.FindOne(ctx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&sess)
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// UpdateParams carries the editable fields of a scheduled session.
type UpdateParams struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// UpdateIfScheduled applies edits only while the session is still
// scheduled; a cancelled session returns ErrAlreadyCancelled.
func (s *Store) UpdateIfScheduled(ctx context.Context, id primitive.ObjectID, p UpdateParams) (models.Session, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sess models.Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.SessionScheduled},
		bson.M{"$set": bson.M{
			"title":       p.Title,
			"description": p.Description,
			"start_time":  p.StartTime,
			"end_time":    p.EndTime,
			"updated_at":  time.Now().UTC(),
		}},
		opts,
	).Decode(&sess)

	if err == mongo.ErrNoDocuments {
		if _, lookupErr := s.getByID(ctx, id); lookupErr == nil {
			return models.Session{}, ErrAlreadyCancelled
		}
		return models.Session{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// CancelIfScheduled moves the session to cancelled, recording who and why.
// The status filter makes a second cancel a no-op error rather than an
// overwrite of the first.
func (s *Store) CancelIfScheduled(ctx context.Context, id, cancelledBy primitive.ObjectID, reason string) (models.Session, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sess models.Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.SessionScheduled},
		bson.M{"$set": bson.M{
			"status":              models.SessionCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        now,
			"cancelled_by":        cancelledBy,
			"updated_at":          now,
		}},
		opts,
	).Decode(&sess)

	if err == mongo.ErrNoDocuments {
		if _, lookupErr := s.getByID(ctx, id); lookupErr == nil {
			return models.Session{}, ErrAlreadyCancelled
		}
		return models.Session{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// SetAttendeeStatus records attendance for one fellow on the snapshot.
func (s *Store) SetAttendeeStatus(ctx context.Context, id, fellowID primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "attendees.fellow_id": fellowID},
		bson.M{"$set": bson.M{
			"attendees.$.status": status,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByCohort returns the cohort's sessions in chronological order.
// Cancelled sessions are included; clients filter by status.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"cohort_id": cohortID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) getByID(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var sess models.Session
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}
