// internal/app/features/fixedroster/routes.go
package fixedroster

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, command func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoster)

	r.Group(func(pr chi.Router) {
		pr.Use(command)
		pr.Post("/{row}", h.HandleSetRow)
	})
	return r
}
