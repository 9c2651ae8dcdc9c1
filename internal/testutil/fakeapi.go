package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload records one PGN upload received by the fake server.
type Upload struct {
	Usernames string
	Filename  string
	Content   string
}

// FakeAnalysis is an in-process stand-in for the analysis server. It
// implements the api/v1 routes the front-end uses and records what it was
// sent.
type FakeAnalysis struct {
	Server *httptest.Server

	mu          sync.Mutex
	uploads     []Upload
	users       []models.ExternalUser
	results     map[string]models.AnalysisDataResult
	failStatus  int
	failMessage string
	nextID      string
}

// NewFakeAnalysis starts a fake analysis server that is closed when the
// test ends.
func NewFakeAnalysis(t *testing.T) *FakeAnalysis {
	t.Helper()

	f := &FakeAnalysis{results: make(map[string]models.AnalysisDataResult)}

	r := chi.NewRouter()
	r.Route(analysisapi.APIPrefix, func(r chi.Router) {
		r.Post("/pgn/upload", f.upload)
		r.Post("/pgn/user", f.user)
		r.Get("/analysis/status/{id}", f.status)
		r.Get("/openapi.json", f.openapi)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake server's base URL.
func (f *FakeAnalysis) URL() string { return f.Server.URL }

// Client returns an analysis client pointed at the fake server.
func (f *FakeAnalysis) Client(t *testing.T) *analysisapi.Client {
	t.Helper()
	c, err := analysisapi.New(f.URL(), zap.NewNop())
	if err != nil {
		t.Fatalf("analysisapi.New: %v", err)
	}
	return c
}

// SetResult stores the result returned for id.
func (f *FakeAnalysis) SetResult(id string, res models.AnalysisDataResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = res
}

// SetNextID fixes the status_id returned by the next submission.
func (f *FakeAnalysis) SetNextID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = id
}

// Fail makes every following request answer with status and a
// {"message": ...} body. Fail(0, "") restores normal behaviour.
func (f *FakeAnalysis) Fail(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
	f.failMessage = message
}

// Uploads returns the uploads received so far.
func (f *FakeAnalysis) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

// Users returns the username submissions received so far.
func (f *FakeAnalysis) Users() []models.ExternalUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExternalUser(nil), f.users...)
}

func (f *FakeAnalysis) failed(w http.ResponseWriter) bool {
	f.mu.Lock()
	status, msg := f.failStatus, f.failMessage
	f.mu.Unlock()
	if status == 0 {
		return false
	}
	writeJSON(w, status, map[string]string{"message": msg})
	return true
}

func (f *FakeAnalysis) issueID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID = ""
	if id == "" {
		id = uuid.NewString()
	}
	return id
}

func (f *FakeAnalysis) upload(w http.ResponseWriter, r *http.Request) {
	if f.failed(w) {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form"})
		return
	}
	file, hdr, err := r.FormFile("pgn_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded"})
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(file)

	f.mu.Lock()
	f.uploads = append(f.uploads, Upload{
		Usernames: r.FormValue("usernames"),
		Filename:  hdr.Filename,
		Content:   string(content),
	})
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status_id": f.issueID()})
}

func (f *FakeAnalysis) user(w http.ResponseWriter, r *http.Request) {
	if f.failed(w) {
		return
	}
	var u models.ExternalUser
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "Invalid body"}},
		})
		return
	}

	f.mu.Lock()
	f.users = append(f.users, u)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status_id": f.issueID()})
}

func (f *FakeAnalysis) status(w http.ResponseWriter, r *http.Request) {
	if f.failed(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": "Please check the Tracking ID you have provided.",
		})
		return
	}

	f.mu.Lock()
	res := f.results[strings.ToLower(id)]
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}

func (f *FakeAnalysis) openapi(w http.ResponseWriter, r *http.Request) {
	if f.failed(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"openapi": "3.1.0"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
