package analysisapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by the client. Transport failures wrap ErrUnavailable;
// non-2xx answers are *APIError.
var (
	ErrUnavailable       = errors.New("analysis server unavailable")
	ErrBusy              = errors.New("analysis client rate limited")
	ErrInvalidTrackingID = errors.New("invalid tracking id")
	ErrBadResponse       = errors.New("unexpected response from analysis server")
)

// APIError is a non-2xx answer from the analysis server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("analysis server: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("analysis server: %d %s", e.Status, http.StatusText(e.Status))
}

// UserMessage turns a client error into toast detail text.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("The analysis server rejected the request (%d %s).",
			apiErr.Status, http.StatusText(apiErr.Status))
	case errors.Is(err, ErrInvalidTrackingID):
		return "Please check the Tracking ID you have provided."
	case errors.Is(err, ErrBusy):
		return "The analysis server is busy. Please try again shortly."
	case errors.Is(err, context.DeadlineExceeded):
		return "The analysis server took too long to respond. Please try again."
	case errors.Is(err, ErrUnavailable):
		return "Could not reach the analysis server. Please try again."
	case errors.Is(err, ErrBadResponse):
		return "The analysis server sent a response we could not read."
	default:
		return "Something went wrong. Please try again."
	}
}
