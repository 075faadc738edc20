// internal/app/features/sessions/handler.go
package sessions

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	sessionstore "github.com/dalemusser/fellowhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/gcal"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for cohort session scheduling.
//
// Creating or editing a session treats the calendar as a hard dependency:
// without an event and join link the session record would be useless to
// fellows, so failures surface as 502 with a reconnect remedy. Deleting the
// event on cancel is best-effort; the local record is authoritative.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	Sessions     *sessionstore.Store
	Cohorts      *cohortstore.Store
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Calendar     *gcal.Factory
	Mail         mailer.Sender

	SiteName string
	BaseURL  string
}

// NewHandler constructs a sessions handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, cal *gcal.Factory,
	mail mailer.Sender, siteName, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		Sessions:     sessionstore.New(db),
		Cohorts:      cohortstore.New(db),
		Institutions: institutionstore.New(db),
		Users:        userstore.New(db),
		Calendar:     cal,
		Mail:         mail,
		SiteName:     siteName,
		BaseURL:      baseURL,
	}
}
