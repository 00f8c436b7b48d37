// internal/app/features/groups/groups.go
package groups

import (
	"net/http"

	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/respond"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
)

// HandleListAll handles POST /ver_todos_grupos.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	names, err := h.Groups.ListNames(ctx)
	if err != nil {
		respond.Error(w, h.Log, "list groups", err)
		return
	}
	respond.List(w, names)
}

// HandlePassphrase handles POST /ver_clave.
func (h *Handler) HandlePassphrase(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "read passphrase", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "read passphrase", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "read passphrase")
	defer cancel()

	pass, ok, err := h.Groups.Passphrase(ctx, group)
	if err != nil {
		respond.Error(w, h.Log, "read passphrase", err)
		return
	}
	if !ok {
		respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: respond.MsgNoData})
		return
	}
	respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Message: respond.MsgFound, Data: map[string]string{"passphrase": pass}})
}

// HandleExists handles POST /existe_grupo.
func (h *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "group exists", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "group exists", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group exists")
	defer cancel()

	ok, err := h.Groups.Exists(ctx, group)
	if err != nil {
		respond.Error(w, h.Log, "group exists", err)
		return
	}
	respond.Exists(w, ok, existsMsg(ok, "group exists"))
}

// HandleValidate handles POST /validar_grupo_clave.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "validate passphrase", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "validate passphrase", err)
		return
	}
	pass, err := normalize.Required("passphrase", body["passphrase"])
	if err != nil {
		respond.Error(w, h.Log, "validate passphrase", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate passphrase")
	defer cancel()

	ok, err := h.Groups.ValidatePassphrase(ctx, group, pass)
	if err != nil {
		respond.Error(w, h.Log, "validate passphrase", err)
		return
	}
	respond.Exists(w, ok, existsMsg(ok, "group exists with that passphrase"))
}

// HandleCreate handles POST /crear_grupo.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "create group", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "create group", err)
		return
	}
	pass, err := normalize.Required("passphrase", body["passphrase"])
	if err != nil {
		respond.Error(w, h.Log, "create group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	if err := h.Groups.Create(ctx, group, pass); err != nil {
		respond.Error(w, h.Log, "create group", err)
		return
	}
	respond.Created(w, "group created")
}

func existsMsg(ok bool, yes string) string {
	if ok {
		return yes
	}
	return respond.MsgNoData
}
