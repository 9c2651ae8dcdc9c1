// Package websession owns the browser-session cookie.
//
// The session carries no account data: it holds an opaque session ID used
// to scope in-flight actions, and the pending toast queue written by the
// notify package. Both share the same gorilla CookieStore and cookie name.
package websession

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	DefaultName = "mychessstyle-session"

	sessionIDKey = "sid"
)

type ctxKey string

const sessionIDCtxKey ctxKey = "sessionID"

// Manager wraps the cookie store and the cookie name.
type Manager struct {
	store sessions.Store
	name  string
	log   *zap.Logger
}

// NewManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure + SameSite=Lax. In local dev
// over http://localhost, use secure=false so cookies are accepted.
func NewManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &Manager{store: store, name: name, log: logger}, nil
}

// NewManagerWithStore wraps an existing store. Tests use it with a
// throwaway CookieStore.
func NewManagerWithStore(store sessions.Store, name string, logger *zap.Logger) *Manager {
	if name == "" {
		name = DefaultName
	}
	return &Manager{store: store, name: name, log: logger}
}

// Store returns the underlying session store.
func (m *Manager) Store() sessions.Store { return m.store }

// Name returns the cookie name.
func (m *Manager) Name() string { return m.name }

// LoadSessionID makes sure every request has a session ID and puts it in
// the request context. A new ID is issued (and the cookie written) on the
// first visit.
func (m *Manager) LoadSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Undecodable cookie (rotated key, tampering): start over.
			m.log.Debug("discarding unreadable session cookie", zap.Error(err))
		}

		id, _ := sess.Values[sessionIDKey].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[sessionIDKey] = id
			if err := sess.Save(r, w); err != nil {
				m.log.Warn("session save failed", zap.Error(err))
			}
		}

		next.ServeHTTP(w, WithSessionID(r, id))
	})
}

// SessionID returns the session ID placed in context by LoadSessionID.
// Requests that bypassed the middleware fall back to the client address so
// per-session bookkeeping still has a stable key.
func SessionID(r *http.Request) string {
	if id, ok := r.Context().Value(sessionIDCtxKey).(string); ok && id != "" {
		return id
	}
	return "addr:" + r.RemoteAddr
}

// WithSessionID returns a copy of r carrying the given session ID.
func WithSessionID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionIDCtxKey, id))
}
