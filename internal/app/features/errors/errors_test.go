package errors_test

import (
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/mychessstyle/internal/app/features/errors"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/dalemusser/mychessstyle/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *errorsfeature.Handler {
	t.Helper()
	d, _ := testutil.NewDispatcher()
	h := errorsfeature.NewHandler(d, zap.NewNop())
	h.Views = viewdata.TemplateRenderer{T: testutil.ParseTemplates(t, errorsfeature.FS, "templates/*.gohtml")}
	return h
}

func TestNotFound(t *testing.T) {
	h := newHandler(t)
	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest(http.MethodGet, "/nope"))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Page not found")
	rec.AssertContains(t, "404")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(t)
	rec := testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest(http.MethodDelete, "/"))

	rec.AssertStatus(t, http.StatusMethodNotAllowed)
}

func TestCSRFFailure_Page(t *testing.T) {
	h := newHandler(t)
	rec := testutil.NewRecorder()
	h.CSRFFailure(rec, testutil.NewRequest(http.MethodPost, "/analyze/track"))

	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "Session expired")
}

func TestCSRFFailure_HTMX(t *testing.T) {
	d, store := testutil.NewDispatcher()
	h := errorsfeature.NewHandler(d, zap.NewNop())

	rec := testutil.NewRecorder()
	h.CSRFFailure(rec, testutil.AsHTMX(testutil.NewRequest(http.MethodPost, "/analyze/gate")))

	rec.AssertStatus(t, http.StatusForbidden)
	if rec.Header().Get("HX-Refresh") != "true" {
		t.Error("expected HX-Refresh for htmx requests")
	}
	if got := store.Peek(); len(got) != 1 || got[0].ThemeClass != "bg-red-500 text-white" {
		t.Errorf("expected one error toast, got %+v", got)
	}
}
