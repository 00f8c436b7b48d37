// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for deRuta.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, pg_host, etc.
//   - Environment variables: DERUTA_MONGO_URI, DERUTA_PG_HOST, etc.
//   - Command-line flags: --mongo_uri, --pg_host, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "deruta", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_transactions", Default: true, Desc: "Mirror writes inside MongoDB transactions when the deployment supports them"},

	// Relational store
	{Name: "pg_host", Default: "localhost", Desc: "PostgreSQL host"},
	{Name: "pg_port", Default: 5432, Desc: "PostgreSQL port"},
	{Name: "pg_user", Default: "deruta", Desc: "PostgreSQL user"},
	{Name: "pg_password", Default: "", Desc: "PostgreSQL password"},
	{Name: "pg_database", Default: "deruta", Desc: "PostgreSQL database name"},
	{Name: "pg_max_conns", Default: 10, Desc: "PostgreSQL max pool connections"},

	// Identity provider
	{Name: "identity_api_key", Default: "", Desc: "API key for the identity provider"},
	{Name: "identity_base_url", Default: "", Desc: "Identity provider base URL (blank uses the public endpoint)"},

	// Password reset throttling
	{Name: "reset_limit_per_email", Default: 3, Desc: "Password reset requests allowed per email per window"},
	{Name: "reset_limit_per_ip", Default: 20, Desc: "Password reset requests allowed per client IP per window"},
	{Name: "reset_limit_window", Default: "1h", Desc: "Password reset throttling window"},

	// Mirror replay worker
	{Name: "mirror_replay_interval", Default: "1m", Desc: "How often pending audit outbox entries are replayed"},
	{Name: "mirror_replay_grace", Default: "30s", Desc: "Minimum outbox entry age before replay settles it (must exceed timeout_long)"},

	// Deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-row reads and checks"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and single-store writes"},
	{Name: "timeout_long", Default: "20s", Desc: "Deadline for audited mutations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults,
// reading WAFFLE_* for core settings and DERUTA_* for the keys above.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DERUTA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoTransactions: appValues.Bool("mongo_transactions"),

		PGHost:     appValues.String("pg_host"),
		PGPort:     appValues.Int("pg_port"),
		PGUser:     appValues.String("pg_user"),
		PGPassword: appValues.String("pg_password"),
		PGDatabase: appValues.String("pg_database"),
		PGMaxConns: appValues.Int("pg_max_conns"),

		IdentityAPIKey:  appValues.String("identity_api_key"),
		IdentityBaseURL: appValues.String("identity_base_url"),

		ResetLimitPerEmail: appValues.Int("reset_limit_per_email"),
		ResetLimitPerIP:    appValues.Int("reset_limit_per_ip"),
		ResetLimitWindow:   appValues.Duration("reset_limit_window", time.Hour),

		MirrorReplayInterval: appValues.Duration("mirror_replay_interval", time.Minute),
		MirrorReplayGrace:    appValues.Duration("mirror_replay_grace", 30*time.Second),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation and applies the
// configured deadlines.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	if appCfg.IdentityAPIKey == "" {
		logger.Warn("identity_api_key is empty; password resets will be rejected by the provider")
	}

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	return nil
}

func validateAppConfig(appCfg AppConfig) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.PGHost == "" || appCfg.PGDatabase == "" {
		return fmt.Errorf("pg_host and pg_database are required")
	}
	if appCfg.PGPort <= 0 || appCfg.PGPort > 65535 {
		return fmt.Errorf("pg_port %d out of range", appCfg.PGPort)
	}
	if appCfg.ResetLimitPerEmail <= 0 || appCfg.ResetLimitPerIP <= 0 || appCfg.ResetLimitWindow <= 0 {
		return fmt.Errorf("password reset limits must be positive")
	}
	if appCfg.MirrorReplayInterval <= 0 {
		return fmt.Errorf("mirror_replay_interval must be positive")
	}
	// A pending entry younger than the longest mutation may belong to a
	// request still in flight; replaying it would misjudge the mutation.
	long := appCfg.TimeoutLong
	if long <= 0 {
		long = timeouts.DefaultLong
	}
	if appCfg.MirrorReplayGrace <= long {
		return fmt.Errorf("mirror_replay_grace (%s) must exceed timeout_long (%s)", appCfg.MirrorReplayGrace, long)
	}
	return nil
}
