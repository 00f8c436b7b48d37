// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/pgdb"
	"github.com/dalemusser/deruta/internal/domain/models"
	"github.com/jackc/pgx/v4"
)

// Store manages group memberships. A nickname is unique within a group.
type Store struct {
	q pgdb.Queryer
}

func New(q pgdb.Queryer) *Store {
	return &Store{q: q}
}

const selectMembership = `SELECT user_id, email, nickname, group_name, is_admin, notifications_enabled FROM memberships`

func scanMemberships(rows pgx.Rows) ([]models.Membership, error) {
	defer rows.Close()
	out := []models.Membership{}
	for rows.Next() {
		var (
			m             models.Membership
			admin, notify int16
		)
		if err := rows.Scan(&m.UserID, &m.Email, &m.Nickname, &m.GroupName, &admin, &notify); err != nil {
			return nil, err
		}
		m.IsAdmin = admin == 1
		m.NotificationsEnabled = notify == 1
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) list(ctx context.Context, sql string, args ...interface{}) ([]models.Membership, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Persistence("could not read memberships", err)
	}
	ms, err := scanMemberships(rows)
	if err != nil {
		return nil, apperr.Persistence("could not read memberships", err)
	}
	return ms, nil
}

// GroupsForUser returns the names of every group the user belongs to.
func (s *Store) GroupsForUser(ctx context.Context, email string) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT group_name FROM memberships WHERE email = $1 ORDER BY group_name`, email)
	if err != nil {
		return nil, apperr.Persistence("could not read memberships", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, apperr.Persistence("could not read memberships", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("could not read memberships", err)
	}
	return names, nil
}

// Get returns the user's membership rows for a group.
func (s *Store) Get(ctx context.Context, email, group string) ([]models.Membership, error) {
	return s.list(ctx, selectMembership+` WHERE email = $1 AND group_name = $2`, email, group)
}

// ListMembers returns every membership of a group.
func (s *Store) ListMembers(ctx context.Context, group string) ([]models.Membership, error) {
	return s.list(ctx, selectMembership+` WHERE group_name = $1 ORDER BY user_id`, group)
}

// IsUserInGroup reports whether the email already belongs to the group.
func (s *Store) IsUserInGroup(ctx context.Context, email, group string) (bool, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM memberships WHERE email = $1 AND group_name = $2`, email, group)
}

// NicknameTaken reports whether the nickname is used in the group.
func (s *Store) NicknameTaken(ctx context.Context, nickname, group string) (bool, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM memberships WHERE nickname = $1 AND group_name = $2`, nickname, group)
}

func (s *Store) count(ctx context.Context, sql string, args ...interface{}) (bool, error) {
	var n int64
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return false, apperr.Persistence("could not count memberships", err)
	}
	return n > 0, nil
}

// Create adds a membership and returns its user id.
func (s *Store) Create(ctx context.Context, m models.Membership) (int64, error) {
	if m.Email == "" || m.Nickname == "" || m.GroupName == "" {
		return 0, apperr.Validation("email, nickname and group are required")
	}

	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO memberships (email, nickname, group_name, is_admin, notifications_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id`,
		m.Email, m.Nickname, m.GroupName,
		normalize.FlagInt(m.IsAdmin), normalize.FlagInt(m.NotificationsEnabled),
	).Scan(&id)
	switch {
	case pgdb.IsUniqueViolation(err):
		return 0, apperr.Conflict("nickname already taken in this group")
	case pgdb.IsForeignKeyViolation(err):
		return 0, apperr.NotFound("group not found")
	case err != nil:
		return 0, apperr.Persistence("could not create membership", err)
	}
	return id, nil
}

// exactlyOne runs a single-row statement. Zero affected rows means the
// target is missing or already in the requested state.
func (s *Store) exactlyOne(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return apperr.Conflict("nickname already taken in this group")
		}
		return apperr.Persistence("could not update membership", err)
	}
	if tag.RowsAffected() != 1 {
		return apperr.NotFound("membership not found or no change")
	}
	return nil
}

// Rename changes a member's nickname.
func (s *Store) Rename(ctx context.Context, oldNickname, group, newNickname string) error {
	return s.exactlyOne(ctx,
		`UPDATE memberships SET nickname = $1 WHERE nickname = $2 AND group_name = $3 AND nickname <> $1`,
		newNickname, oldNickname, group)
}

// SetNotifications toggles notifications for a member.
func (s *Store) SetNotifications(ctx context.Context, nickname, group string, enabled bool) error {
	return s.exactlyOne(ctx,
		`UPDATE memberships SET notifications_enabled = $1 WHERE nickname = $2 AND group_name = $3 AND notifications_enabled <> $1`,
		normalize.FlagInt(enabled), nickname, group)
}

// SetAdmin grants or revokes admin rights by user id.
func (s *Store) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	return s.exactlyOne(ctx,
		`UPDATE memberships SET is_admin = $1 WHERE user_id = $2 AND is_admin <> $1`,
		normalize.FlagInt(isAdmin), userID)
}

// Remove deletes a member from a group.
func (s *Store) Remove(ctx context.Context, nickname, group string) error {
	return s.exactlyOne(ctx,
		`DELETE FROM memberships WHERE nickname = $1 AND group_name = $2`,
		nickname, group)
}
