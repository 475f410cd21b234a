// internal/app/features/schedule/routes.go
package schedule

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the schedule endpoints under /schedule. Months in the path
// are 1-12.
func Routes(h *Handler, command func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{year}/{month}", h.ServeMonth)
	r.Get("/{year}/{month}/events", h.ServeEvents)

	r.Group(func(pr chi.Router) {
		pr.Use(command)
		pr.Post("/{year}/{month}/generate", h.HandleGenerate)
		pr.Post("/{year}/{month}/regenerate", h.HandleRegenerate)
		pr.Post("/{year}/{month}/swap", h.HandleSwap)
		pr.Post("/{year}/{month}/days/{day}/assign", h.HandleAssign)
		pr.Post("/{year}/{month}/days/{day}/toggle", h.HandleToggle)
	})
	return r
}
