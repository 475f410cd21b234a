// internal/app/features/roster/routes.go
package roster

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the roster endpoints. Reads are open; command guards the
// writes. Typically: r.Mount("/roster", roster.Routes(h, sm.RequireRole(roles...)))
func Routes(h *Handler, command func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(command)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}", h.HandleEdit)
		pr.Post("/{id}/active", h.HandleSetActive)
	})
	return r
}
