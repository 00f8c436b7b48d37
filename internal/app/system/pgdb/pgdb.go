// internal/app/system/pgdb/pgdb.go
package pgdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Queryer is the subset of pgxpool.Pool, pgxpool.Conn and pgx.Tx that the
// relational stores use.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Config describes how to reach the membership database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxConns int32
}

// URL renders the config as a postgres:// connection string.
func (c Config) URL() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	return u.String()
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(c.URL())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if c.MaxConns > 0 {
		pcfg.MaxConns = c.MaxConns
	}

	pool, err := pgxpool.ConnectConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s/%s: %w", c.Host, c.Database, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trip_groups (
		name       TEXT PRIMARY KEY,
		passphrase TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		user_id               BIGSERIAL PRIMARY KEY,
		email                 TEXT NOT NULL,
		nickname              TEXT NOT NULL,
		group_name            TEXT NOT NULL REFERENCES trip_groups(name),
		is_admin              SMALLINT NOT NULL DEFAULT 0,
		notifications_enabled SMALLINT NOT NULL DEFAULT 0,
		UNIQUE (group_name, nickname)
	)`,
	`CREATE INDEX IF NOT EXISTS memberships_email_idx ON memberships (email)`,
}

// EnsureSchema creates the membership tables if they are missing.
func EnsureSchema(ctx context.Context, q Queryer) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key failure.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
