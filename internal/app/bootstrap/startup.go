// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// cohortReconciler is created here and shared with the cohorts feature in
// BuildHandler so the manual reconcile endpoint runs the same pass as the
// background loop.
var cohortReconciler *workers.CohortReconciler

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// FellowHub starts the cohort lifecycle reconciler here: a background sweep
// that completes cohorts whose end date has passed and activates the next
// upcoming cohort, keeping at most one active cohort per institution even
// when no request traffic triggers a transition.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	cohortReconciler = workers.NewCohortReconciler(
		cohortstore.New(deps.FellowHubMongoDatabase),
		logger,
		appCfg.ReconcileInterval,
	)
	cohortReconciler.Start()
	return nil
}
