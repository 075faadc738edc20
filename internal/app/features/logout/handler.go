// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// The deletion cookie is still sent; log and report success.
		h.Log.Warn("session clear failed during logout", zap.Error(err))
	}
	webjson.Write(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
