// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fellowhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateApplication is returned when the fellow has already
	// applied to this institution. One application per (fellow, institution)
	// pair, ever.
	ErrDuplicateApplication = errors.New("you have already applied to this institution")

	// ErrAlreadyReviewed is returned when reviewing an application that is
	// no longer pending. Review decisions are terminal.
	ErrAlreadyReviewed = errors.New("this application has already been reviewed")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// Create inserts a pending application. The unique index on
// (fellow_id, institution_id) enforces the one-application rule.
func (s *Store) Create(ctx context.Context, app models.Application) (models.Application, error) {
	now := time.Now().UTC()
	app.ID = primitive.NewObjectID()
	app.Status = models.ApplicationPending
	app.SubmittedAt = now
	app.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, app); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrDuplicateApplication
		}
		return models.Application{}, err
	}
	return app, nil
}

// GetByIDForInstitution scopes the lookup to the reviewing institution so
// another tenant's application reads as not found.
func (s *Store) GetByIDForInstitution(ctx context.Context, id, institutionID primitive.ObjectID) (models.Application, error) {
	var app models.Application
	err := s.c.FindOne(ctx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&app)
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

// ReviewParams carries the terminal decision for an application.
type ReviewParams struct {
	Approve    bool
	ReviewerID primitive.ObjectID
	Notes      string
	CohortID   *primitive.ObjectID // set on approval
}

// Review applies the approve/reject decision. The update is filtered on
// status=pending so a concurrent or repeated review returns
// ErrAlreadyReviewed with no state change.
func (s *Store) Review(ctx context.Context, id, institutionID primitive.ObjectID, p ReviewParams) (models.Application, error) {
	newStatus := models.ApplicationRejected
	if p.Approve {
		newStatus = models.ApplicationApproved
	}
	now := time.Now().UTC()
	set := bson.M{
		"status":       newStatus,
		"reviewed_at":  now,
		"reviewed_by":  p.ReviewerID,
		"review_notes": p.Notes,
		"updated_at":   now,
	}
	if p.CohortID != nil {
		set["cohort_id"] = *p.CohortID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var app models.Application
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "institution_id": institutionID, "status": models.ApplicationPending},
		bson.M{"$set": set},
		opts,
	).Decode(&app)

	if err == mongo.ErrNoDocuments {
		if _, lookupErr := s.GetByIDForInstitution(ctx, id, institutionID); lookupErr == nil {
			return models.Application{}, ErrAlreadyReviewed
		}
		return models.Application{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

// ListByInstitution returns the institution's applications, optionally
// filtered by status, newest first.
func (s *Store) ListByInstitution(ctx context.Context, institutionID primitive.ObjectID, status string) ([]models.Application, error) {
	filter := bson.M{"institution_id": institutionID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByFellow returns all applications submitted by a fellow, newest first.
func (s *Store) ListByFellow(ctx context.Context, fellowID primitive.ObjectID) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"fellow_id": fellowID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
