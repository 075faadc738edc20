// internal/domain/models/institution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Institution statuses. Pending institutions are awaiting root-admin review;
// approved and rejected are terminal.
const (
	InstitutionPending  = "pending"
	InstitutionApproved = "approved"
	InstitutionRejected = "rejected"
)

// Institution is a tenant organization running a fellowship program.
//
// AdminEmail is the account that requested (or was assigned) the admin role.
// The user record is only promoted to role=admin once the institution is
// approved. GoogleRefreshToken is copied from the requesting user at signup
// so calendar/drive capabilities work immediately after approval.
type Institution struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Logo   string             `bson:"logo,omitempty" json:"logo,omitempty"`

	Status     string `bson:"status" json:"status"`
	AdminEmail string `bson:"admin_email" json:"admin_email"`

	GoogleAccountEmail string `bson:"google_account_email,omitempty" json:"google_account_email,omitempty"`
	GoogleRefreshToken string `bson:"google_refresh_token,omitempty" json:"-"`
	DriveRootFolderID  string `bson:"drive_root_folder_id,omitempty" json:"drive_root_folder_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
