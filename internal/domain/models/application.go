// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses. Pending applications await admin review; approved
// and rejected are terminal.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// ApplicationData is the fellow-supplied application form. Free-text fields
// are sanitized at the boundary before they are stored.
type ApplicationData struct {
	FullName   string `bson:"full_name" json:"full_name"`
	Email      string `bson:"email" json:"email"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
	Education  string `bson:"education" json:"education"`
	Experience string `bson:"experience" json:"experience"`
	Motivation string `bson:"motivation" json:"motivation"`
	LinkedIn   string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// Application is a fellow's request to join an institution's program.
// At most one exists per (fellow_id, institution_id), enforced by a unique
// index regardless of status.
type Application struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	FellowID      primitive.ObjectID `bson:"fellow_id" json:"fellow_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`

	Status string          `bson:"status" json:"status"`
	Data   ApplicationData `bson:"data" json:"data"`

	SubmittedAt time.Time           `bson:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewNotes string              `bson:"review_notes,omitempty" json:"review_notes,omitempty"`
	CohortID    *primitive.ObjectID `bson:"cohort_id,omitempty" json:"cohort_id,omitempty"`
}
