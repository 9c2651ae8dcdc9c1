// internal/app/features/results/routes.go
package results

import "github.com/go-chi/chi/v5"

// Routes returns the results router. Mount it at "/results".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Show)
	return r
}
