// internal/app/store/institutions/institutionstore.go
package institutionstore

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

var (
	// ErrDuplicateName is returned when an institution with the same
	// (case-folded) name already exists.
	ErrDuplicateName = errors.New("an institution with this name already exists")

	// ErrAlreadyProcessed is returned when reviewing an institution that is
	// no longer pending. Review decisions are terminal.
	ErrAlreadyProcessed = errors.New("this institution has already been reviewed")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("institutions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Institution, error) {
	var inst models.Institution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return models.Institution{}, err
	}
	return inst, nil
}

// GetByAdminEmail returns the institution owned by the given admin email,
// regardless of status. A rejected signup may be followed by a fresh one
// under the same email, so the newest record wins. Returns
// mongo.ErrNoDocuments if none exists.
func (s *Store) GetByAdminEmail(ctx context.Context, email string) (models.Institution, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var inst models.Institution
	err := s.c.FindOne(ctx, bson.M{"admin_email": normalize.Email(email)}, opts).Decode(&inst)
	if err != nil {
		return models.Institution{}, err
	}
	return inst, nil
}

// Create inserts a new institution. The caller decides the initial status:
// pending for self-service signup, approved for root-admin direct creation.
func (s *Store) Create(ctx context.Context, inst models.Institution) (models.Institution, error) {
	now := time.Now().UTC()
	inst.ID = primitive.NewObjectID()
	inst.Name = normalize.Name(inst.Name)
	inst.NameCI = text.Fold(inst.Name)
	inst.AdminEmail = normalize.Email(inst.AdminEmail)
	if inst.Status == "" {
		inst.Status = models.InstitutionPending
	}
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Institution{}, ErrDuplicateName
		}
		return models.Institution{}, err
	}
	return inst, nil
}

// Review applies the terminal approve/reject decision. The update is
// filtered on status=pending so a second review can never overwrite the
// first: it returns ErrAlreadyProcessed instead, with no state change.
func (s *Store) Review(ctx context.Context, id primitive.ObjectID, approve bool) (models.Institution, error) {
	newStatus := models.InstitutionRejected
	if approve {
		newStatus = models.InstitutionApproved
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var inst models.Institution
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.InstitutionPending},
		bson.M{"$set": bson.M{"status": newStatus, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&inst)

	if err == mongo.ErrNoDocuments {
		// Distinguish "gone" from "already decided".
		if _, lookupErr := s.GetByID(ctx, id); lookupErr == nil {
			return models.Institution{}, ErrAlreadyProcessed
		}
		return models.Institution{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Institution{}, err
	}
	return inst, nil
}

// SetGoogleCredential stores the connected Google Workspace account for the
// institution. Calendar events and Drive folders are created as this
// account. An empty refreshToken is ignored so a repeat consent (where
// Google omits the token) does not wipe the stored one.
func (s *Store) SetGoogleCredential(ctx context.Context, id primitive.ObjectID, accountEmail, refreshToken string) error {
	set := bson.M{
		"google_account_email": normalize.Email(accountEmail),
		"updated_at":           time.Now().UTC(),
	}
	if refreshToken != "" {
		set["google_refresh_token"] = refreshToken
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetDriveRoot records the provisioned root storage folder.
func (s *Store) SetDriveRoot(ctx context.Context, id primitive.ObjectID, folderID string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"drive_root_folder_id": folderID,
		"updated_at":           time.Now().UTC(),
	}})
	return err
}

// ListPending returns institutions awaiting root-admin review, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]models.Institution, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": models.InstitutionPending}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Institution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
