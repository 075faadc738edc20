// internal/app/features/cohorts/routes.go
package cohorts

import (
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all cohort routes under the base path
// (typically "/cohorts" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Reconcile is special: it accepts either an admin session or the cron
	// secret header, so it sits outside the session middleware groups.
	r.Post("/reconcile", h.HandleReconcile)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "rootadmin"))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
	})

	return r
}
