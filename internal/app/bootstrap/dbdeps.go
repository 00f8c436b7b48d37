// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/system/ratelimit"
	"github.com/dalemusser/deruta/internal/app/system/workers"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backing stores and the objects built on top of them.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Postgres      *pgxpool.Pool

	// Mirror pairs every item/calendar mutation with its audit record.
	Mirror *audit.Mirror
	// Replay settles audit outbox entries left by interrupted mutations.
	Replay *workers.MirrorReplay

	// Password reset throttles, closed in Shutdown.
	ResetPerEmail *ratelimit.Limiter
	ResetPerIP    *ratelimit.Limiter
}
