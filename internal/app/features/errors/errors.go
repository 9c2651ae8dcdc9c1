// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mychessstyle/internal/app/system/notify"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status  int
	Message string
}

// Handler is the errors feature handler.
// No backend needed; it just renders templates.
type Handler struct {
	Notify *notify.Dispatcher
	Views  viewdata.Renderer
	Log    *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(d *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{Notify: d, Views: viewdata.Engine{}, Log: logger}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(w, r, h.Notify, title, "/"),
		Status:  status,
		Message: msg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	h.Views.Render(w, r, "error_page", data)
}

// NotFound renders a friendly 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Page not found",
		"We couldn't find that page. Head back to the board and try again.")
}

// MethodNotAllowed renders a 405 page.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusMethodNotAllowed, "Not allowed",
		"That action isn't available here.")
}

// CSRFFailure is the gorilla/csrf failure handler. Expired or missing form
// tokens land here; HTMX requests get a toast and a reload instead of a page.
func (h *Handler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	h.Log.Warn("csrf check failed",
		zap.String("path", r.URL.Path),
		zap.Error(csrf.FailureReason(r)))

	if r.Header.Get("HX-Request") != "" {
		h.Notify.Error(w, r, "Session expired", "Please try again.")
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	h.render(w, r, http.StatusForbidden, "Session expired",
		"Your form expired or could not be verified. Reload the page and try again.")
}
