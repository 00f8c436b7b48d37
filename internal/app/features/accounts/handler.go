// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"net/http"

	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/ratelimit"
	"github.com/dalemusser/deruta/internal/app/system/respond"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Resetter sends password reset emails. *identity.Client implements it.
type Resetter interface {
	SendPasswordReset(ctx context.Context, email string) error
}

// Allower throttles requests by key. *ratelimit.Limiter implements it.
type Allower interface {
	Allow(key string) bool
}

type Handler struct {
	Identity Resetter
	Limit    Allower // per-email throttle; nil disables it
	Log      *zap.Logger
}

func NewHandler(id Resetter, limit Allower, logger *zap.Logger) *Handler {
	return &Handler{Identity: id, Limit: limit, Log: logger}
}

// HandleReset handles POST /resetear_contrasena.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "password reset", err)
		return
	}
	email, err := normalize.Required("email", body["email"])
	if err != nil {
		respond.Error(w, h.Log, "password reset", err)
		return
	}

	email = normalize.Email(email)
	if h.Limit != nil && !h.Limit.Allow(email) {
		h.Log.Warn("password reset throttled")
		ratelimit.TooMany(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "password reset")
	defer cancel()

	if err := h.Identity.SendPasswordReset(ctx, email); err != nil {
		respond.Error(w, h.Log, "password reset", err)
		return
	}
	h.Log.Info("password reset email requested")
	respond.OK(w, "password reset email sent")
}
