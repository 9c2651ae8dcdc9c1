package analysisapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const trackingID = "3f2b8c1e-9d4a-4f6b-8e2a-1c5d7e9f0a1b"

func newClient(t *testing.T, h http.Handler, opts ...analysisapi.Option) *analysisapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := analysisapi.New(srv.URL, zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := analysisapi.New("/server", zap.NewNop())
	assert.Error(t, err)

	_, err = analysisapi.New("ftp://example.com", zap.NewNop())
	assert.Error(t, err)
}

func TestEndpoint_KeepsBasePath(t *testing.T) {
	c, err := analysisapi.New("http://analysis.local:8000/chess/", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://analysis.local:8000/chess/api/v1/pgn/upload", c.Endpoint("pgn", "upload"))
}

func TestParseTrackingID(t *testing.T) {
	id, err := analysisapi.ParseTrackingID("  " + strings.ToUpper(trackingID) + " ")
	require.NoError(t, err)
	assert.Equal(t, analysisapi.TrackingID(trackingID), id)

	_, err = analysisapi.ParseTrackingID("not-a-uuid")
	assert.ErrorIs(t, err, analysisapi.ErrInvalidTrackingID)

	_, err = analysisapi.ParseTrackingID("")
	assert.ErrorIs(t, err, analysisapi.ErrInvalidTrackingID)
}

func TestUploadPGN(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/pgn/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "magnus,DrNykterstein", r.FormValue("usernames"))

		f, hdr, err := r.FormFile("pgn_file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "games.pgn", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.Equal(t, "1. e4 e5", string(body))

		_ = json.NewEncoder(w).Encode(map[string]string{"status_id": trackingID})
	}))

	id, err := c.UploadPGN(context.Background(), "magnus,DrNykterstein", "games.pgn", strings.NewReader("1. e4 e5"))
	require.NoError(t, err)
	assert.Equal(t, analysisapi.TrackingID(trackingID), id)
}

func TestUploadPGN_ServerError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Unsupported file type"}`))
	}))

	_, err := c.UploadPGN(context.Background(), "x", "games.txt", strings.NewReader("?"))
	var apiErr *analysisapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Unsupported file type", apiErr.Message)
	assert.Equal(t, "Unsupported file type", analysisapi.UserMessage(err))
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestUploadPGN_StreamsBody(t *testing.T) {
	content := strings.Repeat("1. e4 e5 2. Nf3 Nc6 ", 1<<16)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A streamed body has no length up front.
		assert.Equal(t, int64(-1), r.ContentLength)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, _, err := r.FormFile("pgn_file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, len(content), len(body))

		_ = json.NewEncoder(w).Encode(map[string]string{"status_id": trackingID})
	}))

	id, err := c.UploadPGN(context.Background(), "magnus", "big.pgn", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, analysisapi.TrackingID(trackingID), id)
}

func TestUploadPGN_ReadError(t *testing.T) {
	errDisk := errors.New("disk gone")
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"status_id": trackingID})
	}))

	_, err := c.UploadPGN(context.Background(), "magnus", "games.pgn", failingReader{err: errDisk})
	assert.ErrorIs(t, err, errDisk)
}

func TestUploadPGN_RateLimitedDoesNotHang(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status_id": trackingID})
	}), analysisapi.WithRateLimit(0.01, 1))

	require.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.UploadPGN(ctx, "magnus", "games.pgn", strings.NewReader("1. e4 e5"))
	assert.ErrorIs(t, err, analysisapi.ErrBusy)
}

func TestUploadPGN_MissingStatusID(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := c.UploadPGN(context.Background(), "x", "g.pgn", strings.NewReader(""))
	assert.ErrorIs(t, err, analysisapi.ErrBadResponse)
}

func TestAnalyzeUser_DefaultsPlatform(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/pgn/user", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got models.ExternalUser
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, models.ExternalUser{Username: "hikaru", Platform: "chess.com", IncludeRoast: true}, got)

		_ = json.NewEncoder(w).Encode(map[string]string{"status_id": trackingID})
	}))

	id, err := c.AnalyzeUser(context.Background(), models.ExternalUser{Username: "hikaru", IncludeRoast: true})
	require.NoError(t, err)
	assert.Equal(t, trackingID, id.String())
}

func TestStatus_PartialResult(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analysis/status/"+trackingID, r.URL.Path)
		_, _ = w.Write([]byte(`{"result": {
			"file_upload": "games.pgn",
			"game": {
				"count": 10, "win_count": 6, "draw_count": 1, "loss_count": 3,
				"opponents_avg_rating": {"blitz": 1830.5},
				"openings": [["Sicilian Defense", {"total": 4, "eco_codes": ["B20", "B90"]}]]
			},
			"roasting_user": "",
			"chess_style": ""
		}}`))
	}))

	res, err := c.Status(context.Background(), trackingID)
	require.NoError(t, err)
	require.NotNil(t, res.FileUpload)
	assert.Equal(t, "games.pgn", *res.FileUpload)
	require.NotNil(t, res.Game)
	assert.Equal(t, 10, res.Game.Count)
	assert.InDelta(t, 1830.5, res.Game.OpponentsAvgRating["blitz"], 0.001)
	require.Len(t, res.Game.Openings, 1)
	assert.Equal(t, "Sicilian Defense", res.Game.Openings[0].Name)
	assert.Equal(t, []string{"B20", "B90"}, res.Game.Openings[0].ECOCodes)
	assert.Nil(t, res.RoastingUser)
	assert.Empty(t, res.ChessStyle)
}

func TestStatus_NothingReady(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"file_upload": "", "game": ""}}`))
	}))

	res, err := c.Status(context.Background(), trackingID)
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
}

func TestStatus_DetailError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Please check the Tracking ID you have provided."}`))
	}))

	_, err := c.Status(context.Background(), trackingID)
	var apiErr *analysisapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Please check the Tracking ID you have provided.", apiErr.Message)
}

func TestStatus_ValidationDetailList(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"msg": "value is not a valid uuid"}]}`))
	}))

	_, err := c.Status(context.Background(), trackingID)
	assert.Equal(t, "value is not a valid uuid", analysisapi.UserMessage(err))
}

func TestStatus_BadJSON(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))

	_, err := c.Status(context.Background(), trackingID)
	assert.ErrorIs(t, err, analysisapi.ErrBadResponse)
}

func TestPing(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/openapi.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"openapi": "3.1.0"}`))
	}))
	assert.NoError(t, c.Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := analysisapi.New(url, zap.NewNop())
	require.NoError(t, err)

	err = c.Ping(context.Background())
	assert.ErrorIs(t, err, analysisapi.ErrUnavailable)
	assert.Equal(t, "Could not reach the analysis server. Please try again.", analysisapi.UserMessage(err))
}

func TestRateLimit_ContextExpires(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}), analysisapi.WithRateLimit(0.01, 1))

	require.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Ping(ctx)
	assert.ErrorIs(t, err, analysisapi.ErrBusy)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api error without message", &analysisapi.APIError{Status: 500}, "The analysis server rejected the request (500 Internal Server Error)."},
		{"invalid id", analysisapi.ErrInvalidTrackingID, "Please check the Tracking ID you have provided."},
		{"deadline", context.DeadlineExceeded, "The analysis server took too long to respond. Please try again."},
		{"other", errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analysisapi.UserMessage(tt.err))
		})
	}
}
