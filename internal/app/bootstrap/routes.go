// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	analyzefeature "github.com/dalemusser/mychessstyle/internal/app/features/analyze"
	errorsfeature "github.com/dalemusser/mychessstyle/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mychessstyle/internal/app/features/health"
	resultsfeature "github.com/dalemusser/mychessstyle/internal/app/features/results"
	serverproxyfeature "github.com/dalemusser/mychessstyle/internal/app/features/serverproxy"
	"github.com/dalemusser/mychessstyle/internal/app/system/notify"
	"github.com/dalemusser/mychessstyle/internal/app/system/websession"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// formOverhead is the room left for ordinary form fields on top of the
// largest accepted upload.
const formOverhead = 1 << 20

var errCSRFKey = errors.New("csrf key generation failed")

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, backend setup, and any Startup
// hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: the analysis client and shared in-process state from DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The front-end initializes the template engine, applies session and CSRF
// middleware, and mounts the home card, the results page, the health check
// and the same-origin proxy to the analysis server.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := websession.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Toasts ride in the same session cookie as the browser-session ID.
	dispatcher := notify.New(notify.NewSessionStore(sessionMgr.Store(), sessionMgr.Name()), logger.Named("notify"))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errorsHandler := errorsfeature.NewHandler(dispatcher, logger)

	protect, err := csrfMiddleware(appCfg, secure, http.HandlerFunc(errorsHandler.CSRFFailure), logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Set before any Mount so subrouters inherit them.
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Client IPs feed the submission rate limit; forwarding headers are only
	// honoured when a trusted proxy sets them.
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}

	// Every request carries a browser-session ID; pending submissions and
	// toasts are keyed by it.
	r.Use(sessionMgr.LoadSessionID)
	r.Use(limitBody(int64(appCfg.MaxUploadMB)<<20 + formOverhead))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Analysis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Same-origin passthrough to the analysis API. It carries no cookies
	// upstream, so it sits outside CSRF protection.
	proxyHandler := serverproxyfeature.NewHandler(deps.Analysis.BaseURL(), nil, logger.Named("serverproxy"))
	r.Mount(serverproxyfeature.Prefix, serverproxyfeature.Routes(proxyHandler))

	r.Group(func(r chi.Router) {
		r.Use(protect)

		resultsHandler := resultsfeature.NewHandler(deps.Analysis, dispatcher, deps.Pending, logger)
		r.Mount("/results", resultsfeature.Routes(resultsHandler))

		// Home card: the three analysis actions and their gate.
		analyzeHandler := analyzefeature.NewHandler(deps.Analysis, dispatcher, deps.Pending, deps.Submit, appCfg.MaxUploadMB, logger)
		r.Mount("/", analyzefeature.Routes(analyzeHandler))
	})

	return r, nil
}

// csrfMiddleware wraps gorilla/csrf. Without a configured key each process
// generates its own, which only works for a single instance.
func csrfMiddleware(appCfg AppConfig, secure bool, onFailure http.Handler, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	key := []byte(appCfg.CSRFKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			logger.Error("csrf key generation failed")
			return nil, errCSRFKey
		}
		logger.Warn("csrf_key not set; generated a per-process key")
	}

	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("mychessstyle_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(onFailure),
	)

	return func(next http.Handler) http.Handler {
		inner := protect(next)
		if secure {
			return inner
		}
		// Plain-HTTP dev servers skip the HTTPS-only referer check.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}, nil
}

// limitBody caps request bodies so neither gorilla/csrf nor the form
// parsers read an unbounded upload.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
