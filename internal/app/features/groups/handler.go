// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"math"
	"strconv"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/domain/models"
	"go.uber.org/zap"
)

// GroupStore is the group half of the relational identity store.
type GroupStore interface {
	ListNames(ctx context.Context) ([]string, error)
	Passphrase(ctx context.Context, name string) (string, bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	ValidatePassphrase(ctx context.Context, name, passphrase string) (bool, error)
	Create(ctx context.Context, name, passphrase string) error
}

// MembershipStore is the membership half of the relational identity store.
type MembershipStore interface {
	GroupsForUser(ctx context.Context, email string) ([]string, error)
	Get(ctx context.Context, email, group string) ([]models.Membership, error)
	ListMembers(ctx context.Context, group string) ([]models.Membership, error)
	IsUserInGroup(ctx context.Context, email, group string) (bool, error)
	NicknameTaken(ctx context.Context, nickname, group string) (bool, error)
	Create(ctx context.Context, m models.Membership) (int64, error)
	Rename(ctx context.Context, oldNickname, group, newNickname string) error
	SetNotifications(ctx context.Context, nickname, group string, enabled bool) error
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) error
	Remove(ctx context.Context, nickname, group string) error
}

// Handler serves the group and membership endpoints.
type Handler struct {
	Groups      GroupStore
	Memberships MembershipStore
	Log         *zap.Logger
}

func NewHandler(groups GroupStore, memberships MembershipStore, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Memberships: memberships, Log: logger}
}

// userID accepts a positive integer sent as a JSON number or a string.
func userID(v any) (int64, error) {
	bad := apperr.Validation(`field "user_id" must be a positive integer`)
	switch n := v.(type) {
	case float64:
		if n <= 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, bad
		}
		return int64(n), nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil || id <= 0 {
			return 0, bad
		}
		return id, nil
	case nil:
		return 0, apperr.Validation(`missing field "user_id"`)
	}
	return 0, bad
}
