// internal/app/features/applications/handler.go
package applications

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	applicationstore "github.com/dalemusser/fellowhub/internal/app/store/applications"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for fellowship applications:
// submission by prospective fellows, and review/enrollment by admins.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	Client       *mongo.Client // transactions for the two-sided membership write
	Applications *applicationstore.Store
	Cohorts      *cohortstore.Store
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Mail         mailer.Sender

	SiteName string
	BaseURL  string
}

// NewHandler constructs an applications handler bound to a DB and logger.
func NewHandler(client *mongo.Client, db *mongo.Database, errLog *uierrors.ErrorLogger,
	mail mailer.Sender, siteName, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		Client:       client,
		Applications: applicationstore.New(db),
		Cohorts:      cohortstore.New(db),
		Institutions: institutionstore.New(db),
		Users:        userstore.New(db),
		Mail:         mail,
		SiteName:     siteName,
		BaseURL:      baseURL,
	}
}
