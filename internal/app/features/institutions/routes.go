// internal/app/features/institutions/routes.go
package institutions

import (
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all institution routes under the base path
// (typically "/institutions" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Any signed-in user can request the admin role for a new institution
	// and see their own signup status.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/signup", h.HandleSignup)
		pr.Get("/mine", h.ServeMine)
	})

	// Root-admin review and direct creation.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("rootadmin"))
		pr.Get("/pending", h.ServePending)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/review", h.HandleReview)
	})

	return r
}
