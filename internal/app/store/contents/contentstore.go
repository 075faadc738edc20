// internal/app/store/contents/contentstore.go
package contentstore

import (
	"context"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contents")}
}

func (s *Store) Create(ctx context.Context, ct models.Content) (models.Content, error) {
	ct.ID = primitive.NewObjectID()
	ct.UploadedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, ct); err != nil {
		return models.Content{}, err
	}
	return ct, nil
}

// GetByIDForInstitution scopes the lookup to the caller's institution.
func (s *Store) GetByIDForInstitution(ctx context.Context, id, institutionID primitive.ObjectID) (models.Content, error) {
	var ct models.Content
	err := s.c.FindOne(ctx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&ct)
	if err != nil {
		return models.Content{}, err
	}
	return ct, nil
}

// ListByCohort returns the cohort's content items, newest first.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Content, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"cohort_id": cohortID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Content
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
