// internal/app/features/accounts/routes.go
package accounts

import "github.com/go-chi/chi/v5"

// Register mounts the account endpoints on r.
func Register(r chi.Router, h *Handler) {
	r.Post("/resetear_contrasena", h.HandleReset)
}
