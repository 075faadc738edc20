// internal/app/store/cohorts/cohortstore.go
package cohortstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fellowhub/internal/app/system/normalize"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateName is returned when the institution already has a cohort
// with the same (case-folded) name.
var ErrDuplicateName = errors.New("a cohort with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cohorts")}
}

// Create inserts a cohort. The caller determines the initial status via
// lifecycle.InitialStatus and validates date ranges beforehand.
func (s *Store) Create(ctx context.Context, co models.Cohort) (models.Cohort, error) {
	now := time.Now().UTC()
	co.ID = primitive.NewObjectID()
	co.Name = normalize.Name(co.Name)
	co.NameCI = text.Fold(co.Name)
	if co.FellowIDs == nil {
		co.FellowIDs = []primitive.ObjectID{}
	}
	co.CreatedAt = now
	co.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, co); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Cohort{}, ErrDuplicateName
		}
		return models.Cohort{}, err
	}
	return co, nil
}

// GetByIDForInstitution scopes the lookup to the caller's institution so a
// cohort belonging to another tenant reads as not found.
func (s *Store) GetByIDForInstitution(ctx context.Context, id, institutionID primitive.ObjectID) (models.Cohort, error) {
	var co models.Cohort
	err := s.c.FindOne(ctx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&co)
	if err != nil {
		return models.Cohort{}, err
	}
	return co, nil
}

// ListByInstitution returns all of an institution's cohorts, newest start
// date first.
func (s *Store) ListByInstitution(ctx context.Context, institutionID primitive.ObjectID) ([]models.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"institution_id": institutionID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Cohort
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatuses returns the institution's cohorts in any of the given
// statuses, ordered by start date. Used for overlap checks (active and
// upcoming cohorts constrain new date ranges).
func (s *Store) ListByStatuses(ctx context.Context, institutionID primitive.ObjectID, statuses ...string) ([]models.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{
		"institution_id": institutionID,
		"status":         bson.M{"$in": statuses},
	}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Cohort
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActive returns the institution's single active cohort, or
// mongo.ErrNoDocuments when none is running.
func (s *Store) GetActive(ctx context.Context, institutionID primitive.ObjectID) (models.Cohort, error) {
	var co models.Cohort
	err := s.c.FindOne(ctx, bson.M{
		"institution_id": institutionID,
		"status":         models.CohortActive,
	}).Decode(&co)
	if err != nil {
		return models.Cohort{}, err
	}
	return co, nil
}

// CountActive reports how many cohorts the institution currently has in the
// active state. Anything other than 0 or 1 indicates a bug.
func (s *Store) CountActive(ctx context.Context, institutionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"institution_id": institutionID,
		"status":         models.CohortActive,
	})
}

// CompleteIfActive moves the cohort from active to completed. The filter on
// the current status makes the transition idempotent under concurrent
// reconcilers; it reports whether this call performed the write.
func (s *Store) CompleteIfActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CohortActive},
		bson.M{"$set": bson.M{"status": models.CohortCompleted, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ActivateIfUpcoming moves the cohort from upcoming to active. Like
// CompleteIfActive, the status filter guarantees only one of several
// concurrent reconcilers performs the transition.
func (s *Store) ActivateIfUpcoming(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CohortUpcoming},
		bson.M{"$set": bson.M{"status": models.CohortActive, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ListNeedingReconcile returns cohorts across all institutions that may be
// due for a status transition: active cohorts whose end date has passed,
// and upcoming cohorts whose start date has arrived.
func (s *Store) ListNeedingReconcile(ctx context.Context, now time.Time) ([]models.Cohort, error) {
	cur, err := s.c.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"status": models.CohortActive, "end_date": bson.M{"$lt": now}},
		bson.M{"status": models.CohortUpcoming, "start_date": bson.M{"$lte": now}},
	}})
	if err != nil {
		return nil, err
	}
	var out []models.Cohort
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFellow adds the fellow to the cohort's membership set. Callers must
// pair this with userstore.AddToCohort so both sides of the edge stay
// consistent.
func (s *Store) AddFellow(ctx context.Context, cohortID, fellowID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, cohortID, bson.M{
		"$addToSet": bson.M{"fellow_ids": fellowID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetDriveFolder records the provisioned storage folder for the cohort.
func (s *Store) SetDriveFolder(ctx context.Context, id primitive.ObjectID, folderID, folderLink string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"drive_folder_id":   folderID,
		"drive_folder_link": folderLink,
		"updated_at":        time.Now().UTC(),
	}})
	return err
}
