// internal/domain/models/cohort.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort statuses. Transitions between them happen only through the
// reconciliation pass, never by direct admin edits.
const (
	CohortUpcoming  = "upcoming"
	CohortActive    = "active"
	CohortCompleted = "completed"
)

// Cohort is a time-boxed batch of fellows within an institution.
//
// Invariants (enforced at creation and by reconciliation):
//   - end_date is strictly after start_date
//   - at most one active cohort per institution
//   - no two cohorts of the same institution have overlapping date ranges
//     (inclusive on both ends)
//
// FellowIDs is the denormalized side of the membership edge mirrored on
// User.CohortIDs; both sides are written together (see applicationstore).
type Cohort struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Name          string             `bson:"name" json:"name"`
	NameCI        string             `bson:"name_ci" json:"-"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`

	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
	Status    string    `bson:"status" json:"status"`

	FellowIDs []primitive.ObjectID `bson:"fellow_ids" json:"fellow_ids"`

	DriveFolderID   string `bson:"drive_folder_id,omitempty" json:"drive_folder_id,omitempty"`
	DriveFolderLink string `bson:"drive_folder_link,omitempty" json:"drive_folder_link,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
