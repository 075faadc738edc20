// internal/app/features/content/handler.go
package content

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	contentstore "github.com/dalemusser/fellowhub/internal/app/store/contents"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for cohort content distribution.
// Files live in the cohort's storage folder; the database keeps the
// metadata and share link.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	Contents     *contentstore.Store
	Cohorts      *cohortstore.Store
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Drive        *gdrive.Factory
}

// NewHandler constructs a content handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, drive *gdrive.Factory, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		Contents:     contentstore.New(db),
		Cohorts:      cohortstore.New(db),
		Institutions: institutionstore.New(db),
		Users:        userstore.New(db),
		Drive:        drive,
	}
}
