// internal/app/features/applications/routes.go
package applications

import (
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all application routes under the base path
// (typically "/applications" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Submission and own-application listing: any signed-in user. A fellow
	// enrolled elsewhere is rejected in the handler, not here.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.HandleSubmit)
		pr.Get("/mine", h.ServeMine)
	})

	// Review queue: institution admins.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "rootadmin"))
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/review", h.HandleReview)
	})

	return r
}
