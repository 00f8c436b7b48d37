// internal/app/features/items/routes.go
package items

import "github.com/go-chi/chi/v5"

// Register mounts the item endpoints on r. Paths are top-level for
// compatibility with existing clients.
func Register(r chi.Router, h *Handler) {
	r.Post("/insertar_firestore_item", h.HandleCreate)
	r.Put("/modificar_firestore/{group}/{id}", h.HandleUpdate)
	r.Delete("/eliminar_firestore/{group}/{id}", h.HandleDelete)
	r.Post("/obtener_datos", h.HandleQuery)
	r.Put("/visitado/{group}/{id}", h.HandleVisited)
}
