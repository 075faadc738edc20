// internal/app/features/content/routes.go
package content

import (
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all content routes under the base path
// (typically "/contents" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "rootadmin"))
		pr.Post("/", h.HandleUpload)
	})

	return r
}
