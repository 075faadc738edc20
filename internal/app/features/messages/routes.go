// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all messaging routes under the base path
// (typically "/conversations" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleOpen)
		pr.Get("/{id}/messages", h.ServeMessages)
		pr.Post("/{id}/messages", h.HandleSend)
		pr.Post("/{id}/read", h.HandleMarkRead)
	})

	return r
}
