// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/deruta/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the replay worker and the throttles, then closes both
// stores.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Replay != nil {
		deps.Replay.Stop()
	}
	closeLimiters(deps)
	if deps.Postgres != nil {
		logger.Info("closing PostgreSQL pool")
		deps.Postgres.Close()
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func closeLimiters(deps DBDeps) {
	for _, l := range []*ratelimit.Limiter{deps.ResetPerEmail, deps.ResetPerIP} {
		if l != nil {
			l.Close()
		}
	}
}
