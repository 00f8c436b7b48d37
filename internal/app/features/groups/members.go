// internal/app/features/groups/members.go
package groups

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/respond"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"github.com/dalemusser/deruta/internal/domain/models"
)

// required reads the named non-blank string fields from body in order.
func required(body map[string]any, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		v, err := normalize.Required(n, body[n])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// HandleUserGroups handles POST /ver_grupos.
func (h *Handler) HandleUserGroups(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "list user groups", err)
		return
	}
	v, err := required(body, "email")
	if err != nil {
		respond.Error(w, h.Log, "list user groups", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list user groups")
	defer cancel()

	names, err := h.Memberships.GroupsForUser(ctx, normalize.Email(v[0]))
	if err != nil {
		respond.Error(w, h.Log, "list user groups", err)
		return
	}
	respond.List(w, names)
}

// HandleUserData handles POST /ver_datos_usuario.
func (h *Handler) HandleUserData(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "read membership", err)
		return
	}
	v, err := required(body, "email", "group")
	if err != nil {
		respond.Error(w, h.Log, "read membership", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "read membership")
	defer cancel()

	rows, err := h.Memberships.Get(ctx, normalize.Email(v[0]), v[1])
	if err != nil {
		respond.Error(w, h.Log, "read membership", err)
		return
	}
	respond.List(w, rows)
}

// HandleListMembers handles POST /ver_usuarios.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "list members", err)
		return
	}
	v, err := required(body, "group")
	if err != nil {
		respond.Error(w, h.Log, "list members", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	rows, err := h.Memberships.ListMembers(ctx, v[0])
	if err != nil {
		respond.Error(w, h.Log, "list members", err)
		return
	}
	respond.List(w, rows)
}

// HandleUserInGroup handles POST /usuario_ya_en_grupo.
func (h *Handler) HandleUserInGroup(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "user in group", err)
		return
	}
	v, err := required(body, "group", "email")
	if err != nil {
		respond.Error(w, h.Log, "user in group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user in group")
	defer cancel()

	ok, err := h.Memberships.IsUserInGroup(ctx, normalize.Email(v[1]), v[0])
	if err != nil {
		respond.Error(w, h.Log, "user in group", err)
		return
	}
	respond.Exists(w, ok, existsMsg(ok, "user already in group"))
}

// HandleNicknameTaken handles POST /existe_nick.
func (h *Handler) HandleNicknameTaken(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "nickname taken", err)
		return
	}
	v, err := required(body, "group", "nickname")
	if err != nil {
		respond.Error(w, h.Log, "nickname taken", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "nickname taken")
	defer cancel()

	ok, err := h.Memberships.NicknameTaken(ctx, v[1], v[0])
	if err != nil {
		respond.Error(w, h.Log, "nickname taken", err)
		return
	}
	respond.Exists(w, ok, existsMsg(ok, "nickname exists in that group"))
}

// HandleJoin handles POST /insertar_usuario.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "create membership", err)
		return
	}
	v, err := required(body, "email", "nickname", "group")
	if err != nil {
		respond.Error(w, h.Log, "create membership", err)
		return
	}
	admin, err := normalize.Flag("is_admin", body["is_admin"])
	if err != nil {
		respond.Error(w, h.Log, "create membership", err)
		return
	}
	notify, err := normalize.Flag("notifications_enabled", body["notifications_enabled"])
	if err != nil {
		respond.Error(w, h.Log, "create membership", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create membership")
	defer cancel()

	id, err := h.Memberships.Create(ctx, models.Membership{
		Email:                normalize.Email(v[0]),
		Nickname:             v[1],
		GroupName:            v[2],
		IsAdmin:              admin,
		NotificationsEnabled: notify,
	})
	if err != nil {
		respond.Error(w, h.Log, "create membership", err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Envelope{
		Success: true,
		ID:      strconv.FormatInt(id, 10),
		Message: "membership created",
	})
}

// HandleRename handles PUT /modificar_nombre_usuario.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "rename member", err)
		return
	}
	v, err := required(body, "old_nickname", "group", "new_nickname")
	if err != nil {
		respond.Error(w, h.Log, "rename member", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "rename member")
	defer cancel()

	if err := h.Memberships.Rename(ctx, v[0], v[1], v[2]); err != nil {
		respond.Error(w, h.Log, "rename member", err)
		return
	}
	respond.OK(w, "nickname updated")
}

// HandleNotifications handles PUT /modificar_notificaciones.
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "set notifications", err)
		return
	}
	v, err := required(body, "nickname", "group")
	if err != nil {
		respond.Error(w, h.Log, "set notifications", err)
		return
	}
	enabled, err := normalize.Flag("notifications_enabled", body["notifications_enabled"])
	if err != nil {
		respond.Error(w, h.Log, "set notifications", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set notifications")
	defer cancel()

	if err := h.Memberships.SetNotifications(ctx, v[0], v[1], enabled); err != nil {
		respond.Error(w, h.Log, "set notifications", err)
		return
	}
	respond.OK(w, "notifications updated")
}

// HandleAdmin handles PUT /modificar_administrador.
func (h *Handler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "set admin", err)
		return
	}
	id, err := userID(body["user_id"])
	if err != nil {
		respond.Error(w, h.Log, "set admin", err)
		return
	}
	admin, err := normalize.Flag("is_admin", body["is_admin"])
	if err != nil {
		respond.Error(w, h.Log, "set admin", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set admin")
	defer cancel()

	if err := h.Memberships.SetAdmin(ctx, id, admin); err != nil {
		respond.Error(w, h.Log, "set admin", err)
		return
	}
	respond.OK(w, "admin flag updated")
}

// HandleLeave handles POST /salir_grupo.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "leave group", err)
		return
	}
	v, err := required(body, "nickname", "group")
	if err != nil {
		respond.Error(w, h.Log, "leave group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave group")
	defer cancel()

	if err := h.Memberships.Remove(ctx, v[0], v[1]); err != nil {
		respond.Error(w, h.Log, "leave group", err)
		return
	}
	respond.OK(w, "member removed from group")
}
