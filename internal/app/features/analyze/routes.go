// internal/app/features/analyze/routes.go
package analyze

import "github.com/go-chi/chi/v5"

// Routes returns the router for the home card. Mount it at "/".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeCard)
	r.Post("/analyze/gate", h.Gate)
	r.Post("/analyze/pgn", h.AnalyzePGN)
	r.Post("/analyze/username", h.AnalyzeUsername)
	r.Post("/analyze/track", h.Track)
	return r
}
