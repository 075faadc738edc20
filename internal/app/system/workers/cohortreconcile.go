// internal/app/system/workers/cohortreconcile.go
package workers

import (
	"context"
	"sync"
	"time"

	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	"github.com/dalemusser/fellowhub/internal/app/system/lifecycle"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CohortReconciler is a background worker that advances cohort statuses on
// schedule: active cohorts past their end date become completed, and an
// upcoming cohort whose start date has arrived becomes active once no
// predecessor is still running.
//
// Multiple replicas may run this concurrently; the status-filtered writes
// in the cohort store make every transition single-winner, so extra passes
// are harmless no-ops.
type CohortReconciler struct {
	cohorts  *cohortstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCohortReconciler creates the reconciliation worker. interval is how
// often a pass runs (e.g. 5 minutes).
func NewCohortReconciler(cohorts *cohortstore.Store, logger *zap.Logger, interval time.Duration) *CohortReconciler {
	return &CohortReconciler{
		cohorts:  cohorts,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *CohortReconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cohort reconciler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CohortReconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("cohort reconciler stopped")
}

func (w *CohortReconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := w.RunOnce(ctx, time.Now().UTC()); err != nil {
				w.log.Error("cohort reconcile pass failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	RunID        string `json:"run_id"`
	Completed    int    `json:"completed"`
	Activated    int    `json:"activated"`
	Institutions int    `json:"institutions"`
}

// RunOnce performs a single reconciliation pass over every institution with
// a cohort that may be due for a transition. It is also invoked directly by
// the manual reconcile endpoint.
func (w *CohortReconciler) RunOnce(ctx context.Context, now time.Time) (PassResult, error) {
	res := PassResult{RunID: uuid.NewString()}

	candidates, err := w.cohorts.ListNeedingReconcile(ctx, now)
	if err != nil {
		return res, err
	}
	if len(candidates) == 0 {
		return res, nil
	}

	seen := map[primitive.ObjectID]bool{}
	for _, c := range candidates {
		if seen[c.InstitutionID] {
			continue
		}
		seen[c.InstitutionID] = true
		res.Institutions++

		if err := w.reconcileInstitution(ctx, now, c.InstitutionID, &res); err != nil {
			w.log.Error("institution reconcile failed",
				zap.String("run_id", res.RunID),
				zap.String("institution_id", c.InstitutionID.Hex()),
				zap.Error(err))
		}
	}

	if res.Completed > 0 || res.Activated > 0 {
		w.log.Info("cohort reconcile pass applied transitions",
			zap.String("run_id", res.RunID),
			zap.Int("completed", res.Completed),
			zap.Int("activated", res.Activated),
			zap.Int("institutions", res.Institutions))
	}
	return res, nil
}

// RunInstitution performs a reconciliation pass for one institution only.
// The manual reconcile endpoint uses this when the caller is an institution
// admin, so one tenant can never advance another tenant's cohorts.
func (w *CohortReconciler) RunInstitution(ctx context.Context, now time.Time, institutionID primitive.ObjectID) (PassResult, error) {
	res := PassResult{RunID: uuid.NewString(), Institutions: 1}
	if err := w.reconcileInstitution(ctx, now, institutionID, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (w *CohortReconciler) reconcileInstitution(ctx context.Context, now time.Time, institutionID primitive.ObjectID, res *PassResult) error {
	// Completed cohorts never transition again; only these two matter.
	cohorts, err := w.cohorts.ListByStatuses(ctx, institutionID,
		models.CohortActive, models.CohortUpcoming)
	if err != nil {
		return err
	}

	plan := lifecycle.BuildPlan(now, cohorts)

	if !plan.Complete.IsZero() {
		done, err := w.cohorts.CompleteIfActive(ctx, plan.Complete)
		if err != nil {
			return err
		}
		if done {
			res.Completed++
			w.log.Info("cohort completed",
				zap.String("run_id", res.RunID),
				zap.String("cohort_id", plan.Complete.Hex()))
		}
	}

	if !plan.Activate.IsZero() {
		// Re-check just before the write: another replica may have activated
		// a different cohort between BuildPlan and here.
		n, err := w.cohorts.CountActive(ctx, institutionID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		done, err := w.cohorts.ActivateIfUpcoming(ctx, plan.Activate)
		if err != nil {
			return err
		}
		if done {
			res.Activated++
			w.log.Info("cohort activated",
				zap.String("run_id", res.RunID),
				zap.String("cohort_id", plan.Activate.Hex()))
		}
	}
	return nil
}
