// internal/app/features/results/handler.go
package results

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/actiongate"
	"github.com/dalemusser/mychessstyle/internal/app/system/notify"
	"github.com/dalemusser/mychessstyle/internal/app/system/pending"
	"github.com/dalemusser/mychessstyle/internal/app/system/timeouts"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/dalemusser/mychessstyle/internal/app/system/websession"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatusFetcher reads analysis results. *analysisapi.Client satisfies it.
type StatusFetcher interface {
	Status(ctx context.Context, id analysisapi.TrackingID) (models.AnalysisDataResult, error)
}

// Handler renders analysis results for a tracking ID.
type Handler struct {
	API     StatusFetcher
	Notify  *notify.Dispatcher
	Pending *pending.Registry
	Views   viewdata.Renderer
	Log     *zap.Logger
}

func NewHandler(api StatusFetcher, d *notify.Dispatcher, p *pending.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		API:     api,
		Notify:  d,
		Pending: p,
		Views:   viewdata.Engine{},
		Log:     logger,
	}
}

const trackTab = "/?tab=track"

// Show handles GET /results/{id}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := analysisapi.ParseTrackingID(raw)
	if err != nil {
		h.Notify.Error(w, r, "Invalid Tracking ID", analysisapi.UserMessage(err))
		http.Redirect(w, r, trackTab+"&tracking_id="+url.QueryEscape(raw), http.StatusSeeOther)
		return
	}

	sid := websession.SessionID(r)
	if h.Pending.Begin(sid, actiongate.ActionTrack) {
		defer h.Pending.End(sid, actiongate.ActionTrack)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "analysis status")
	defer cancel()

	res, err := h.API.Status(ctx, id)
	if err != nil {
		h.Log.Error("analysis status failed", zap.String("tracking_id", id.String()), zap.Error(err))
		h.Notify.Error(w, r, "Could not load analysis", analysisapi.UserMessage(err))
		http.Redirect(w, r, trackTab+"&tracking_id="+url.QueryEscape(id.String()), http.StatusSeeOther)
		return
	}

	data := BuildView(id, res)
	data.BaseVM = viewdata.NewBaseVM(w, r, h.Notify, "Your analysis", trackTab)

	h.Views.Render(w, r, "results_page", data)
}
