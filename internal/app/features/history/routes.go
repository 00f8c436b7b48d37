// internal/app/features/history/routes.go
package history

import "github.com/go-chi/chi/v5"

// Register mounts the audit trail endpoint on r.
func Register(r chi.Router, h *Handler) {
	r.Post("/historial", h.HandleHistory)
}
