// internal/app/features/analyze/handler.go
package analyze

import (
	"context"
	"io"
	"net/http"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/notify"
	"github.com/dalemusser/mychessstyle/internal/app/system/pending"
	"github.com/dalemusser/mychessstyle/internal/app/system/ratelimit"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"go.uber.org/zap"
)

// Analyzer submits analysis jobs. *analysisapi.Client satisfies it.
type Analyzer interface {
	UploadPGN(ctx context.Context, usernames, filename string, file io.Reader) (analysisapi.TrackingID, error)
	AnalyzeUser(ctx context.Context, u models.ExternalUser) (analysisapi.TrackingID, error)
}

// Handler serves the home card and its submit flows.
type Handler struct {
	API     Analyzer
	Notify  *notify.Dispatcher
	Pending *pending.Registry
	Limiter *ratelimit.SubmitLimiter // nil disables submit throttling
	Views   viewdata.Renderer
	Log     *zap.Logger

	MaxUploadMB int64
}

func NewHandler(api Analyzer, d *notify.Dispatcher, p *pending.Registry, limiter *ratelimit.SubmitLimiter, maxUploadMB int, logger *zap.Logger) *Handler {
	return &Handler{
		API:         api,
		Notify:      d,
		Pending:     p,
		Limiter:     limiter,
		Views:       viewdata.Engine{},
		Log:         logger,
		MaxUploadMB: int64(maxUploadMB),
	}
}

func (h *Handler) maxUploadBytes() int64 {
	return h.MaxUploadMB << 20
}

// redirect sends the browser to target. HTMX requests get HX-Redirect so
// the whole page reloads and drains the toast queue.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
