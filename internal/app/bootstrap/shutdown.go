// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background cleanup goroutines. The analysis client holds
// only idle HTTP connections, which are released with the process.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Submit != nil {
		logger.Info("stopping submission rate limiter")
		deps.Submit.Close()
	}
	return nil
}
