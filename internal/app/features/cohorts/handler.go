// internal/app/features/cohorts/handler.go
package cohorts

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"github.com/dalemusser/fellowhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for cohort management.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	Cohorts      *cohortstore.Store
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Drive        *gdrive.Factory
	Reconciler   *workers.CohortReconciler

	// CronSecret authorizes the reconcile endpoint for schedulers that have
	// no session (header X-Cron-Secret).
	CronSecret string
}

// NewHandler constructs a cohorts handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, drive *gdrive.Factory,
	reconciler *workers.CohortReconciler, cronSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		Cohorts:      cohortstore.New(db),
		Institutions: institutionstore.New(db),
		Users:        userstore.New(db),
		Drive:        drive,
		Reconciler:   reconciler,
		CronSecret:   cronSecret,
	}
}
