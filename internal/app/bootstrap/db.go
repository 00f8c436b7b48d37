// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/store/outbox"
	"github.com/dalemusser/deruta/internal/app/system/indexes"
	"github.com/dalemusser/deruta/internal/app/system/pgdb"
	"github.com/dalemusser/deruta/internal/app/system/ratelimit"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"github.com/dalemusser/deruta/internal/app/system/txn"
	"github.com/dalemusser/deruta/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens both stores and builds the audit mirror, the replay
// worker and the password reset throttles.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	pool, err := pgdb.Connect(pingCtx, pgdb.Config{
		Host:     appCfg.PGHost,
		Port:     appCfg.PGPort,
		User:     appCfg.PGUser,
		Password: appCfg.PGPassword,
		Database: appCfg.PGDatabase,
		MaxConns: int32(appCfg.PGMaxConns),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	logger.Info("connected to PostgreSQL",
		zap.String("host", appCfg.PGHost), zap.String("database", appCfg.PGDatabase))

	db := client.Database(appCfg.MongoDatabase)

	txClient := client
	if !appCfg.MongoTransactions {
		txClient = nil
		logger.Info("mongo transactions disabled; audit mirroring uses the outbox")
	}
	mirror := audit.NewMirror(audit.New(db), outbox.New(db), txn.New(txClient, logger), logger)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Postgres:      pool,
		Mirror:        mirror,
		Replay:        workers.NewMirrorReplay(mirror, logger, appCfg.MirrorReplayInterval, appCfg.MirrorReplayGrace),
		ResetPerEmail: ratelimit.New(appCfg.ResetLimitPerEmail, appCfg.ResetLimitWindow),
		ResetPerIP:    ratelimit.New(appCfg.ResetLimitPerIP, appCfg.ResetLimitWindow),
	}, nil
}

// EnsureSchema creates MongoDB indexes and the relational tables.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure mongo indexes failed", zap.Error(err))
		return err
	}
	if err := pgdb.EnsureSchema(ctx, deps.Postgres); err != nil {
		logger.Error("ensure postgres schema failed", zap.Error(err))
		return err
	}
	return nil
}
