// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Register mounts the group and membership endpoints on r.
func Register(r chi.Router, h *Handler) {
	// groups
	r.Post("/ver_todos_grupos", h.HandleListAll)
	r.Post("/ver_clave", h.HandlePassphrase)
	r.Post("/existe_grupo", h.HandleExists)
	r.Post("/validar_grupo_clave", h.HandleValidate)
	r.Post("/crear_grupo", h.HandleCreate)

	// memberships
	r.Post("/ver_grupos", h.HandleUserGroups)
	r.Post("/ver_datos_usuario", h.HandleUserData)
	r.Post("/ver_usuarios", h.HandleListMembers)
	r.Post("/usuario_ya_en_grupo", h.HandleUserInGroup)
	r.Post("/existe_nick", h.HandleNicknameTaken)
	r.Post("/insertar_usuario", h.HandleJoin)
	r.Put("/modificar_nombre_usuario", h.HandleRename)
	r.Put("/modificar_notificaciones", h.HandleNotifications)
	r.Put("/modificar_administrador", h.HandleAdmin)
	r.Post("/salir_grupo", h.HandleLeave)
}
