// internal/app/features/calendar/handler.go
package calendar

import (
	"context"
	"net/http"

	"github.com/dalemusser/deruta/internal/app/store/entries"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/respond"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"github.com/dalemusser/deruta/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the calendar repository the handlers need.
type Store interface {
	Create(ctx context.Context, group string, fields map[string]string) (primitive.ObjectID, error)
	Update(ctx context.Context, group, id string, fields map[string]string, actor string) error
	Delete(ctx context.Context, group, id, actor string) error
	Query(ctx context.Context, group string, filters map[string]string) ([]models.CalendarEntry, error)
}

// Handler serves the calendar endpoints.
type Handler struct {
	Calendar Store
	Log      *zap.Logger
}

func NewHandler(cal Store, logger *zap.Logger) *Handler {
	return &Handler{Calendar: cal, Log: logger}
}

// HandleCreate handles POST /insertar_firestore_calendario.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "create calendar entry", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "create calendar entry", err)
		return
	}
	fields, err := entries.Calendar.Normalize(body)
	if err != nil {
		respond.Error(w, h.Log, "create calendar entry", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create calendar entry")
	defer cancel()

	id, err := h.Calendar.Create(ctx, group, fields)
	if err != nil {
		respond.Error(w, h.Log, "create calendar entry", err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, ID: id.Hex(), Message: "calendar entry saved"})
}

// HandleUpdate handles PUT /modificar_firestore_calendario/{group}/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	group, id := chi.URLParam(r, "group"), chi.URLParam(r, "id")
	if group == "" || id == "" {
		respond.Error(w, h.Log, "update calendar entry", apperr.Validation("group and id are required"))
		return
	}
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "update calendar entry", err)
		return
	}
	fields, err := entries.Calendar.Normalize(body)
	if err != nil {
		respond.Error(w, h.Log, "update calendar entry", err)
		return
	}
	actor, err := normalize.Text("actor", body["actor"])
	if err != nil {
		respond.Error(w, h.Log, "update calendar entry", err)
		return
	}
	if actor == "" {
		actor = fields["author"]
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update calendar entry")
	defer cancel()

	if err := h.Calendar.Update(ctx, group, id, fields, actor); err != nil {
		respond.Error(w, h.Log, "update calendar entry", err)
		return
	}
	respond.OK(w, "calendar entry updated")
}

// HandleDelete handles DELETE /eliminar_firestore_calendario/{group}/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	group, id := chi.URLParam(r, "group"), chi.URLParam(r, "id")
	if group == "" || id == "" {
		respond.Error(w, h.Log, "delete calendar entry", apperr.Validation("group and id are required"))
		return
	}
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "delete calendar entry", err)
		return
	}
	actor, err := normalize.Text("actor", body["actor"])
	if err != nil {
		respond.Error(w, h.Log, "delete calendar entry", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete calendar entry")
	defer cancel()

	if err := h.Calendar.Delete(ctx, group, id, actor); err != nil {
		respond.Error(w, h.Log, "delete calendar entry", err)
		return
	}
	respond.OK(w, "calendar entry deleted")
}

// HandleQuery handles POST /obtener_datos_calendario.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "query calendar", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "query calendar", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "query calendar")
	defer cancel()

	list, err := h.Calendar.Query(ctx, group, nil)
	if err != nil {
		respond.Error(w, h.Log, "query calendar", err)
		return
	}
	respond.List(w, list)
}
