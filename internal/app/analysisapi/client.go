// Package analysisapi is the HTTP client for the external analysis server.
//
// The server exposes its API under /api/v1:
//
//	POST /api/v1/pgn/upload              multipart: usernames, pgn_file   → {"status_id": "…"}
//	POST /api/v1/pgn/user                JSON ExternalUser                → {"status_id": "…"}
//	GET  /api/v1/analysis/status/{id}                                     → {"result": {…}}
//	GET  /api/v1/openapi.json                                             (reachability)
//
// Requests are never retried; callers surface failures to the user, who
// decides whether to try again.
package analysisapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIPrefix is the path under the base URL where the API lives.
const APIPrefix = "/api/v1"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// TrackingID identifies a submitted analysis job.
type TrackingID string

// ParseTrackingID validates s as a UUID and returns its canonical form.
func ParseTrackingID(s string) (TrackingID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTrackingID, err)
	}
	return TrackingID(id.String()), nil
}

func (id TrackingID) String() string { return string(id) }

// Client talks to the analysis server. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a client for the server at baseURL (scheme and host, with an
// optional path prefix).
func New(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse analysis api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("analysis api url must be an absolute http(s) URL, got %q", baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{},
		log:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the server's base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Endpoint returns the absolute URL for an API path such as "pgn/upload".
func (c *Client) Endpoint(elem ...string) string {
	return c.base.JoinPath(append([]string{APIPrefix}, elem...)...).String()
}

type statusIDResponse struct {
	StatusID string `json:"status_id"`
}

// UploadPGN submits a PGN file (or archive) together with the usernames the
// player used in those games. The multipart body is streamed from file, so
// memory use does not grow with the upload size.
func (c *Client) UploadPGN(ctx context.Context, usernames, filename string, file io.Reader) (TrackingID, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	var writeErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		writeErr = writeUploadForm(mw, usernames, filename, file)
		_ = pw.CloseWithError(writeErr)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint("pgn", "upload"), pr)
	if err != nil {
		_ = pr.Close()
		<-done
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out statusIDResponse
	err = c.do(req, &out)

	// Unblocks the writer if the body was never (fully) read.
	_ = pr.Close()
	<-done

	if writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) {
		return "", fmt.Errorf("read pgn file: %w", writeErr)
	}
	if err != nil {
		return "", err
	}
	return trackingFrom(out)
}

func writeUploadForm(mw *multipart.Writer, usernames, filename string, file io.Reader) error {
	if err := mw.WriteField("usernames", usernames); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("pgn_file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, file); err != nil {
		return err
	}
	return mw.Close()
}

// AnalyzeUser asks the server to fetch and analyse a player's games from an
// external platform.
func (c *Client) AnalyzeUser(ctx context.Context, u models.ExternalUser) (TrackingID, error) {
	if u.Platform == "" {
		u.Platform = models.DefaultPlatform
	}
	payload, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode external user: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint("pgn", "user"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out statusIDResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return trackingFrom(out)
}

type statusResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Status fetches whatever analysis stages have completed for id.
func (c *Client) Status(ctx context.Context, id TrackingID) (models.AnalysisDataResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint("analysis", "status", id.String()), nil)
	if err != nil {
		return models.AnalysisDataResult{}, err
	}

	var out statusResponse
	if err := c.do(req, &out); err != nil {
		return models.AnalysisDataResult{}, err
	}
	return c.decodeResult(out.Result), nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint("openapi.json"), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}
	}

	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.log.Warn("analysis server returned error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrBadResponse, req.URL.Path, err)
	}
	return nil
}

func trackingFrom(out statusIDResponse) (TrackingID, error) {
	if strings.TrimSpace(out.StatusID) == "" {
		return "", fmt.Errorf("%w: missing status_id", ErrBadResponse)
	}
	return TrackingID(out.StatusID), nil
}

// errorMessage extracts a human message from an error body. The server
// answers with {"message": "..."} or {"detail": "..."}; validation errors
// carry {"detail": [{"msg": "..."}]}.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var obj struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Message != "" {
		return obj.Message
	}

	var detail string
	if err := json.Unmarshal(obj.Detail, &detail); err == nil {
		return detail
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(obj.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// decodeResult reads each stage leniently. Stages that have not finished
// come back as empty strings (or are absent) and are left nil.
func (c *Client) decodeResult(raw map[string]json.RawMessage) models.AnalysisDataResult {
	var res models.AnalysisDataResult

	if v, ok := raw["file_upload"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			res.FileUpload = &s
		}
	}
	if v, ok := raw["game"]; ok && isObject(v) {
		var g models.GameData
		if err := json.Unmarshal(v, &g); err == nil {
			res.Game = &g
		} else {
			c.log.Debug("skipping unreadable game stage", zap.Error(err))
		}
	}
	if v, ok := raw["roasting_user"]; ok && isObject(v) {
		var ru models.RoastingUserData
		if err := json.Unmarshal(v, &ru); err == nil {
			res.RoastingUser = &ru
		} else {
			c.log.Debug("skipping unreadable roast stage", zap.Error(err))
		}
	}
	if v, ok := raw["chess_style"]; ok && isObject(v) {
		var cs map[string]any
		if err := json.Unmarshal(v, &cs); err == nil && len(cs) > 0 {
			res.ChessStyle = cs
		}
	}
	return res
}

func isObject(v json.RawMessage) bool {
	b := bytes.TrimSpace(v)
	return len(b) > 0 && b[0] == '{'
}
