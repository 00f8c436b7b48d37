// internal/app/features/calendar/routes.go
package calendar

import "github.com/go-chi/chi/v5"

// Register mounts the calendar endpoints on r.
func Register(r chi.Router, h *Handler) {
	r.Post("/insertar_firestore_calendario", h.HandleCreate)
	r.Put("/modificar_firestore_calendario/{group}/{id}", h.HandleUpdate)
	r.Delete("/eliminar_firestore_calendario/{group}/{id}", h.HandleDelete)
	r.Post("/obtener_datos_calendario", h.HandleQuery)
}
