// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/mychessstyle/internal/app/system/inputval"
	"github.com/dalemusser/mychessstyle/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// devSessionKey is the default signing key. It is rejected in production.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for the front-end.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: MYCHESSSTYLE_API_BASE_URL, MYCHESSSTYLE_SESSION_NAME, etc.
//   - Command-line flags: --api_base_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "api_base_url", Default: "http://localhost:8000", Desc: "Analysis server base URL (the API lives under /api/v1)"},
	{Name: "upstream_rps", Default: 5, Desc: "Max requests per second to the analysis server (0 disables)"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mychessstyle-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "csrf_key", Default: "", Desc: "32-byte CSRF key (blank generates one at startup)"},

	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (enable only behind a reverse proxy)"},

	{Name: "max_upload_mb", Default: 20, Desc: "Largest accepted PGN upload in MB"},
	{Name: "submit_rate_per_minute", Default: 10, Desc: "Analysis submissions allowed per client IP per minute"},

	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Timeout for analysis status lookups (e.g., 10s)"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Timeout for PGN uploads and username analysis (e.g., 60s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MYCHESSSTYLE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MYCHESSSTYLE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL:  appValues.String("api_base_url"),
		UpstreamRPS: appValues.Int("upstream_rps"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		CSRFKey:       appValues.String("csrf_key"),

		TrustProxy: appValues.Bool("trust_proxy"),

		MaxUploadMB:         appValues.Int("max_upload_mb"),
		SubmitRatePerMinute: appValues.Int("submit_rate_per_minute"),

		TimeoutShort: appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutLong:  appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// upstreamSettings holds the config values checked with inputval rules.
type upstreamSettings struct {
	APIBaseURL string `validate:"required,httpurl" label:"api_base_url"`
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if res := inputval.Validate(upstreamSettings{APIBaseURL: appCfg.APIBaseURL}); res.HasErrors() {
		logger.Error("invalid analysis server URL", zap.String("api_base_url", appCfg.APIBaseURL))
		return fmt.Errorf("%s (got %q)", res.First(), appCfg.APIBaseURL)
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be set in production")
	}
	if appCfg.CSRFKey != "" && len(appCfg.CSRFKey) != 32 {
		return fmt.Errorf("csrf_key must be exactly 32 bytes, got %d", len(appCfg.CSRFKey))
	}

	if appCfg.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", appCfg.MaxUploadMB)
	}
	if appCfg.SubmitRatePerMinute <= 0 {
		return fmt.Errorf("submit_rate_per_minute must be positive, got %d", appCfg.SubmitRatePerMinute)
	}
	if appCfg.UpstreamRPS < 0 {
		return fmt.Errorf("upstream_rps must not be negative, got %d", appCfg.UpstreamRPS)
	}

	for name, d := range map[string]time.Duration{
		"timeout_short": appCfg.TimeoutShort,
		"timeout_long":  appCfg.TimeoutLong,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}

	return nil
}
