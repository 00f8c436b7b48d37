// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/pgdb"
	"github.com/jackc/pgx/v4"
)

// Store reads and creates trip groups. Groups are never renamed or removed.
type Store struct {
	q pgdb.Queryer
}

func New(q pgdb.Queryer) *Store {
	return &Store{q: q}
}

// ListNames returns every group name. An empty result is not an error.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT name FROM trip_groups ORDER BY name`)
	if err != nil {
		return nil, apperr.Persistence("could not list groups", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, apperr.Persistence("could not list groups", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("could not list groups", err)
	}
	return names, nil
}

// Passphrase returns the group's passphrase. ok is false when the group
// does not exist.
func (s *Store) Passphrase(ctx context.Context, name string) (passphrase string, ok bool, err error) {
	err = s.q.QueryRow(ctx, `SELECT passphrase FROM trip_groups WHERE name = $1`, name).Scan(&passphrase)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Persistence("could not read passphrase", err)
	}
	return passphrase, true, nil
}

// Exists reports whether a group with this name exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM trip_groups WHERE name = $1`, name)
}

// ValidatePassphrase reports whether name and passphrase match a group.
func (s *Store) ValidatePassphrase(ctx context.Context, name, passphrase string) (bool, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM trip_groups WHERE name = $1 AND passphrase = $2`, name, passphrase)
}

func (s *Store) count(ctx context.Context, sql string, args ...interface{}) (bool, error) {
	var n int64
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return false, apperr.Persistence("could not count groups", err)
	}
	return n > 0, nil
}

// Create inserts a group. A taken name is a Conflict.
func (s *Store) Create(ctx context.Context, name, passphrase string) error {
	if name == "" || passphrase == "" {
		return apperr.Validation("group name and passphrase are required")
	}
	tag, err := s.q.Exec(ctx, `INSERT INTO trip_groups (name, passphrase) VALUES ($1, $2)`, name, passphrase)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return apperr.Conflict("a group with this name already exists")
		}
		return apperr.Persistence("could not create group", err)
	}
	if tag.RowsAffected() != 1 {
		return apperr.Persistence("could not create group", nil)
	}
	return nil
}
