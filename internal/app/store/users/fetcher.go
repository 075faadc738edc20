// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher adapts the user store to auth.UserFetcher so sessions always see
// fresh role and institution data.
type Fetcher struct {
	store *Store
}

// NewFetcher builds a Fetcher for the session manager.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// Fetch loads the session user by hex ID. A missing user yields (nil, nil)
// so the session is treated as signed out.
func (f *Fetcher) Fetch(ctx context.Context, idHex string) (*auth.SessionUser, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, nil
	}
	u, err := f.store.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.InstitutionID != nil {
		su.InstitutionID = u.InstitutionID.Hex()
	}
	return su, nil
}
