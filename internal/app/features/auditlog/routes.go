// internal/app/features/auditlog/routes.go
package auditlog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under /audit. Only the command can read it.
func Routes(h *Handler, command func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(command)
		pr.Get("/", h.ServeList)
	})

	return r
}
