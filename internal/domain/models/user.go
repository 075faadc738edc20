// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. An empty role is a valid transient state: the user has signed
// in with Google but has not yet applied anywhere or requested the admin
// role. Admin is only "live" once the owning institution is approved.
const (
	RoleAdmin     = "admin"
	RoleFellow    = "fellow"
	RoleRootAdmin = "rootadmin"
)

// User represents fellows, institution admins, and the platform root admin.
//
// CohortIDs mirrors Cohort.FellowIDs; the two are always written together.
// GoogleRefreshToken is stored so the app can act on the user's calendar
// and drive after they leave the OAuth flow.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Email      string             `bson:"email" json:"email"`
	Picture    string             `bson:"picture,omitempty" json:"picture,omitempty"`

	Role          string               `bson:"role,omitempty" json:"role,omitempty"`
	InstitutionID *primitive.ObjectID  `bson:"institution_id,omitempty" json:"institution_id,omitempty"`
	CohortIDs     []primitive.ObjectID `bson:"cohort_ids,omitempty" json:"cohort_ids,omitempty"`

	GoogleRefreshToken string `bson:"google_refresh_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
