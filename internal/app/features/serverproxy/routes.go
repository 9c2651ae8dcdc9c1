// internal/app/features/serverproxy/routes.go
package serverproxy

import "github.com/go-chi/chi/v5"

// Routes mounts the proxy for every method. Mount it at Prefix.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Handle("/*", h)
	return r
}
