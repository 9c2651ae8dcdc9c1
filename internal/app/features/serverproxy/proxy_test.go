package serverproxy_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/mychessstyle/internal/app/features/serverproxy"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mount(h *serverproxy.Handler) http.Handler {
	r := chi.NewRouter()
	r.Mount(serverproxy.Prefix, serverproxy.Routes(h))
	return r
}

func TestUpstreamPath(t *testing.T) {
	target, _ := url.Parse("http://analysis.local:8000/chess/")
	h := serverproxy.NewHandler(target, nil, zap.NewNop())

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"/server/pgn/upload", "/chess/api/v1/pgn/upload", true},
		{"/server", "/chess/api/v1", true},
		{"/server/analysis/status/", "/chess/api/v1/analysis/status/", true},
		{"/server/../../admin/", "", false},
		{"/server/pgn/../../../admin/login", "", false},
		{"/server/./openapi.json", "", false},
	}
	for _, tt := range tests {
		got, ok := h.UpstreamPath(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestProxy_RejectsDotSegments(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	srv := mount(serverproxy.NewHandler(target, nil, zap.NewNop()))

	for _, p := range []string{"/server/../../admin/login/", "/server/pgn/%2e%2e/%2e%2e/admin"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, p)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Invalid API path", body["message"])
	}
	assert.Zero(t, hits, "nothing may reach the analysis server")
}

func TestProxy_RewritesPath(t *testing.T) {
	var gotPath, gotQuery, gotCookie, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotCookie = r.Header.Get("Cookie")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_id": "abc"}`))
	}))
	defer upstream.Close()

	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	srv := mount(serverproxy.NewHandler(target, nil, zap.NewNop()))

	req := httptest.NewRequest(http.MethodPost, "/server/pgn/user?verbose=1", strings.NewReader(`{"username":"hikaru"}`))
	req.Header.Set("Cookie", "mychessstyle-session=secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/pgn/user", gotPath)
	assert.Equal(t, "verbose=1", gotQuery)
	assert.Empty(t, gotCookie)
	assert.Equal(t, `{"username":"hikaru"}`, gotBody)
	assert.JSONEq(t, `{"status_id": "abc"}`, rec.Body.String())
}

func TestProxy_PassesUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Please check the Tracking ID you have provided."}`))
	}))
	defer upstream.Close()

	target, _ := url.Parse(upstream.URL)
	srv := mount(serverproxy.NewHandler(target, nil, zap.NewNop()))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/server/analysis/status/nope", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tracking ID")
}

func TestProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target, _ := url.Parse(upstream.URL)
	upstream.Close()

	srv := mount(serverproxy.NewHandler(target, nil, zap.NewNop()))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/server/openapi.json", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Analysis server unavailable", body["message"])
}
