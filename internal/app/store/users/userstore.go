// internal/app/store/users/userstore.go
package userstore

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

// ErrDuplicateEmail is returned when creating a user with an email that
// already exists.
var ErrDuplicateEmail = errors.New("a user with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. Role may be empty
// (transient, pre-onboarding state).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpsertFromGoogle creates or refreshes a user record on OAuth sign-in.
// Name and picture follow the Google profile; role and institution are
// never touched here. The refresh token is only overwritten when Google
// issues a new one (it is omitted on repeat consent).
func (s *Store) UpsertFromGoogle(ctx context.Context, email, fullName, picture, refreshToken string) (*models.User, error) {
	email = normalize.Email(email)
	fullName = normalize.Name(fullName)
	now := time.Now().UTC()

	set := bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"picture":      picture,
		"updated_at":   now,
	}
	if refreshToken != "" {
		set["google_refresh_token"] = refreshToken
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"email": email, "created_at": now},
		},
		opts,
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRole changes the user's role without touching their institution.
// Used for root-admin promotion on sign-in.
func (s *Store) SetRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetInstitution attaches a user to an institution with the given role.
// Used when an application is approved (role=fellow) and when an
// institution is approved (role=admin).
func (s *Store) SetInstitution(ctx context.Context, userID, institutionID primitive.ObjectID, role string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"role":           role,
		"institution_id": institutionID,
		"updated_at":     time.Now().UTC(),
	}})
	return err
}

// PromoteAdminByEmail sets role=admin and the institution on the user with
// the given email. Returns mongo.ErrNoDocuments when no such user exists.
func (s *Store) PromoteAdminByEmail(ctx context.Context, email string, institutionID primitive.ObjectID) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{
			"role":           models.RoleAdmin,
			"institution_id": institutionID,
			"updated_at":     time.Now().UTC(),
		}},
		opts,
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddToCohort adds the cohort to the user's cohort set. Callers must pair
// this with cohortstore.AddFellow; the two sides of the membership edge are
// only ever written together (see the application review workflow).
func (s *Store) AddToCohort(ctx context.Context, userID, cohortID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"cohort_ids": cohortID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ListAdminsByInstitution returns the admin users of an institution, for
// notification fan-out on new applications.
func (s *Store) ListAdminsByInstitution(ctx context.Context, institutionID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"institution_id": institutionID,
		"role":           models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetManyByIDs loads users for a set of IDs, e.g. resolving session
// attendee emails from a cohort's fellow list.
func (s *Store) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
