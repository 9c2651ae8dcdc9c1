// Package serverproxy forwards /server/* to the analysis server's /api/v1/*,
// so browser code can call the API same-origin.
package serverproxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"go.uber.org/zap"
)

// Prefix is the path the proxy is mounted under.
const Prefix = "/server"

// Handler is the reverse proxy.
type Handler struct {
	Target *url.URL
	Log    *zap.Logger

	proxy *httputil.ReverseProxy
}

// NewHandler proxies to target (the analysis server's base URL). transport
// may be nil for http.DefaultTransport.
func NewHandler(target *url.URL, transport http.RoundTripper, logger *zap.Logger) *Handler {
	h := &Handler{Target: target, Log: logger}
	h.proxy = &httputil.ReverseProxy{
		Rewrite:      h.rewrite,
		Transport:    transport,
		ErrorHandler: h.upstreamError,
	}
	return h
}

// UpstreamPath maps a /server/... request path onto the API path. ok is
// false when the path carries dot segments, which could climb out of the
// API prefix on the analysis host.
func (h *Handler) UpstreamPath(p string) (upstream string, ok bool) {
	rest := strings.TrimPrefix(p, Prefix)
	if rest != "" && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	for _, seg := range strings.Split(rest, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}
	return strings.TrimRight(h.Target.Path, "/") + analysisapi.APIPrefix + rest, true
}

func (h *Handler) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Scheme = h.Target.Scheme
	pr.Out.URL.Host = h.Target.Host
	// ServeHTTP has already rejected paths UpstreamPath refuses.
	pr.Out.URL.Path, _ = h.UpstreamPath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	pr.Out.Host = h.Target.Host
	pr.SetXForwarded()

	// Session and CSRF cookies belong to this site, not the API.
	pr.Out.Header.Del("Cookie")
}

func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	h.Log.Error("proxy: analysis server unreachable",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeMessage(w, http.StatusBadGateway, "Analysis server unavailable")
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.UpstreamPath(r.URL.Path); !ok {
		h.Log.Warn("proxy: rejected path outside the API",
			zap.String("path", r.URL.Path))
		writeMessage(w, http.StatusBadRequest, "Invalid API path")
		return
	}
	h.proxy.ServeHTTP(w, r)
}
