// Package notify is the toast notification dispatcher.
//
// Handlers call ShowMessage with a (severity, summary, detail) triple. The
// notification is appended to the caller's browser-session queue and shown
// on the next page render, where it stays for Lifetime unless the user
// dismisses it first. Overlapping notifications stack; nothing replaces or
// mutates a queued notification.
//
// A Dispatcher is constructed once in bootstrap and injected into handlers.
// Tests build their own with a MemoryStore.
package notify

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Severity is the presentation level of a notification.
type Severity string

const (
	SeverityError     Severity = "error"
	SeveritySecondary Severity = "secondary"
	SeverityInfo      Severity = "info"
	SeveritySuccess   Severity = "success"
	SeverityWarn      Severity = "warn"
	SeverityContrast  Severity = "contrast"
)

// Lifetime is how long a toast stays on screen.
const Lifetime = 5 * time.Second

// Longer summaries and details are cut short, with an ellipsis. Details
// often echo upstream error text of arbitrary length.
const (
	MaxSummaryRunes = 80
	MaxDetailRunes  = 300
)

// DefaultTheme is used for any severity missing from the theme table.
// An unknown severity is a caller defect, and it degrades to the success
// look rather than failing.
const DefaultTheme = "bg-green-600 text-white"

// themes maps each severity to its CSS theme classes.
var themes = map[Severity]string{
	SeverityError:     "bg-red-500 text-white",
	SeveritySuccess:   "bg-green-600 text-white",
	SeveritySecondary: "bg-slate-200 text-black",
	SeverityInfo:      "bg-sky-500 text-white",
	SeverityWarn:      "bg-orange-600 text-white",
	SeverityContrast:  "bg-slate-900 text-white",
}

// ThemeClass returns the theme classes for a severity, or DefaultTheme.
func ThemeClass(s Severity) string {
	if c, ok := themes[s]; ok {
		return c
	}
	return DefaultTheme
}

// Notification is a single queued toast.
type Notification struct {
	Severity     Severity
	Summary      string
	Detail       string
	ThemeClass   string
	CreatedAt    time.Time
	ExpiresAfter time.Duration
}

// ExpiresAt is the moment the toast dismisses itself.
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.ExpiresAfter)
}

// Expired reports whether the toast's lifetime has elapsed at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt())
}

// LifeMillis is the lifetime in milliseconds, as used by the toast script.
func (n Notification) LifeMillis() int64 {
	return n.ExpiresAfter.Milliseconds()
}

// Store is a per-session notification queue.
type Store interface {
	// Add appends n to the queue of the session behind r.
	Add(w http.ResponseWriter, r *http.Request, n Notification) error
	// Drain returns the queued notifications, oldest first, and empties the queue.
	Drain(w http.ResponseWriter, r *http.Request) ([]Notification, error)
}

// Dispatcher creates notifications and hands them to a Store.
type Dispatcher struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// New returns a dispatcher backed by store.
func New(store Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, log: logger, now: time.Now}
}

// WithClock replaces the clock. Used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// ShowMessage queues a toast for the current session and returns its theme
// classes. It must be called before the response body is written.
//
// A queue failure is logged and dropped; the toast is best-effort and is
// never retried.
func (d *Dispatcher) ShowMessage(w http.ResponseWriter, r *http.Request, severity Severity, summary, detail string) string {
	theme := ThemeClass(severity)
	n := Notification{
		Severity:     severity,
		Summary:      truncate(summary, MaxSummaryRunes),
		Detail:       truncate(detail, MaxDetailRunes),
		ThemeClass:   theme,
		CreatedAt:    d.now(),
		ExpiresAfter: Lifetime,
	}
	if err := d.store.Add(w, r, n); err != nil {
		d.log.Warn("notification dropped",
			zap.String("severity", string(severity)),
			zap.String("summary", summary),
			zap.Error(err))
	}
	return theme
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

// Error, Success, Warn and Info are shorthands for ShowMessage.
func (d *Dispatcher) Error(w http.ResponseWriter, r *http.Request, summary, detail string) string {
	return d.ShowMessage(w, r, SeverityError, summary, detail)
}

func (d *Dispatcher) Success(w http.ResponseWriter, r *http.Request, summary, detail string) string {
	return d.ShowMessage(w, r, SeveritySuccess, summary, detail)
}

func (d *Dispatcher) Warn(w http.ResponseWriter, r *http.Request, summary, detail string) string {
	return d.ShowMessage(w, r, SeverityWarn, summary, detail)
}

func (d *Dispatcher) Info(w http.ResponseWriter, r *http.Request, summary, detail string) string {
	return d.ShowMessage(w, r, SeverityInfo, summary, detail)
}

// Drain takes the session's pending notifications for rendering.
// Errors are logged and yield an empty list.
func (d *Dispatcher) Drain(w http.ResponseWriter, r *http.Request) []Notification {
	ns, err := d.store.Drain(w, r)
	if err != nil {
		d.log.Warn("notification queue unreadable", zap.Error(err))
		return nil
	}
	return ns
}
