// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries what is specific to the chess-style front-end: where
// the analysis server lives, how browser sessions are signed, and how hard
// the front-end is allowed to push the analysis server.
type AppConfig struct {
	// Analysis server
	APIBaseURL  string // Base URL of the analysis server (e.g., http://localhost:8000)
	UpstreamRPS int    // Max requests per second sent to the analysis server (0 disables)

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: mychessstyle-session)
	SessionDomain string // Cookie domain (blank means current host)

	// CSRF protection
	CSRFKey string // 32-byte key for CSRF tokens (blank generates one per process)

	// Trust X-Forwarded-For / X-Real-IP (only behind a reverse proxy)
	TrustProxy bool

	// Submissions
	MaxUploadMB         int // Largest accepted PGN upload
	SubmitRatePerMinute int // Analysis submissions allowed per client IP per minute

	// Upstream timeouts (zero keeps the defaults)
	TimeoutShort time.Duration
	TimeoutLong  time.Duration
}
