// internal/app/features/attendance/routes.go
package attendance

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, command func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{year}", h.ServeDashboard)
	r.Get("/{year}/events", h.ServeEvents)
	r.Get("/{year}/members/{id}", h.ServeMember)

	r.Group(func(pr chi.Router) {
		pr.Use(command)
		pr.Post("/{year}/presence", h.HandleSetPresence)
		pr.Post("/{year}/toggle", h.HandleToggle)
	})
	return r
}
