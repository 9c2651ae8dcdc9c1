// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/pending"
	"github.com/dalemusser/mychessstyle/internal/app/system/ratelimit"
	"github.com/dalemusser/mychessstyle/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the analysis server client and the shared in-process
// state. Nothing is dialled here; reachability is checked in EnsureSchema.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := analysisapi.New(appCfg.APIBaseURL, logger.Named("analysisapi"),
		analysisapi.WithHTTPClient(&http.Client{Transport: http.DefaultTransport}),
		analysisapi.WithRateLimit(float64(appCfg.UpstreamRPS), appCfg.UpstreamRPS),
	)
	if err != nil {
		return DBDeps{}, fmt.Errorf("analysis client: %w", err)
	}

	longTimeout := appCfg.TimeoutLong
	if longTimeout <= 0 {
		longTimeout = timeouts.DefaultLong
	}

	logger.Info("analysis server configured",
		zap.String("api_base_url", client.BaseURL().String()),
		zap.Int("upstream_rps", appCfg.UpstreamRPS))

	return DBDeps{
		Analysis: client,
		// An entry outlives the slowest possible submission, then expires
		// even if the handler never released it.
		Pending: pending.New(2 * longTimeout),
		Submit:  ratelimit.NewSubmitLimiter(appCfg.SubmitRatePerMinute),
	}, nil
}

// EnsureSchema has no schema to manage. It probes the analysis server so a
// misconfigured api_base_url shows up in the startup log; an unreachable
// server is not fatal, since it may come up after the front-end.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	if err := deps.Analysis.Ping(pingCtx); err != nil {
		logger.Warn("analysis server not reachable at startup",
			zap.String("api_base_url", appCfg.APIBaseURL),
			zap.Error(err))
		return nil
	}
	logger.Info("analysis server reachable")
	return nil
}
