// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (DERUTA_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the HTTP server, logging and CORS; everything about the two
// backing stores and the identity provider lives here.
type AppConfig struct {
	// Document store (items, calendar, audit collections, outbox)
	MongoURI          string
	MongoDatabase     string
	MongoMaxPoolSize  uint64
	MongoTransactions bool // false forces the outbox strategy even on replica sets

	// Relational identity store (groups and memberships)
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGMaxConns int

	// Password reset provider
	IdentityAPIKey  string
	IdentityBaseURL string

	// Password reset throttling
	ResetLimitPerEmail int
	ResetLimitPerIP    int
	ResetLimitWindow   time.Duration

	// Outbox replay worker
	MirrorReplayInterval time.Duration
	MirrorReplayGrace    time.Duration

	// Per-operation deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
