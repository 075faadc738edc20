// internal/app/features/cohorts/reconcile.go
package cohorts

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/app/system/workers"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cohorts/reconcile                                                      |
| Runs one reconciliation pass immediately, on top of the background loop.     |
| The X-Cron-Secret header (external schedulers) and root admins reconcile     |
| every institution; an institution admin's session reconciles only their      |
| own institution.                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	global, institutionID, ok := h.reconcileScope(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var result workers.PassResult
	var err error
	if global {
		result, err = h.Reconciler.RunOnce(ctx, time.Now().UTC())
	} else {
		result, err = h.Reconciler.RunInstitution(ctx, time.Now().UTC(), institutionID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "manual reconcile", err)
		return
	}

	h.Log.Info("manual reconcile pass finished",
		zap.String("run_id", result.RunID),
		zap.Bool("global", global),
		zap.Int("completed", result.Completed),
		zap.Int("activated", result.Activated))

	webjson.Write(w, http.StatusOK, result)
}

// reconcileScope decides who may trigger a pass and how far it reaches.
func (h *Handler) reconcileScope(r *http.Request) (global bool, institutionID primitive.ObjectID, ok bool) {
	if h.CronSecret != "" {
		secret := r.Header.Get("X-Cron-Secret")
		if secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.CronSecret)) == 1 {
			return true, primitive.NilObjectID, true
		}
	}
	u, signedIn := auth.CurrentUser(r)
	if !signedIn {
		return false, primitive.NilObjectID, false
	}
	switch u.Role {
	case models.RoleRootAdmin:
		return true, primitive.NilObjectID, true
	case models.RoleAdmin:
		id, err := primitive.ObjectIDFromHex(u.InstitutionID)
		if err != nil {
			return false, primitive.NilObjectID, false
		}
		return false, id, true
	}
	return false, primitive.NilObjectID, false
}
