// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content types.
const (
	ContentDocument     = "document"
	ContentVideo        = "video"
	ContentPresentation = "presentation"
	ContentOther        = "other"
)

// Content is a file distributed to a cohort through its Drive folder.
// Creation requires the cohort folder to be provisioned; records are
// immutable afterward.
type Content struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	CohortID      primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Type        string `bson:"type" json:"type"`
	MimeType    string `bson:"mime_type" json:"mime_type"`

	DriveFileID string `bson:"drive_file_id" json:"-"`
	ShareLink   string `bson:"share_link" json:"share_link"`

	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}
