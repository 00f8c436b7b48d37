// internal/app/features/items/handler.go
package items

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

// Store is the item repository the handlers need.
type Store interface {
	Create(ctx context.Context, group string, fields map[string]string) (primitive.ObjectID, error)
	Update(ctx context.Context, group, id string, fields map[string]string, actor string) error
	Delete(ctx context.Context, group, id, actor string) error
	Query(ctx context.Context, group string, filters map[string]string) ([]models.Item, error)
	SetVisited(ctx context.Context, group, id, value, actor string) error
}

// Handler serves the points-of-interest endpoints.
type Handler struct {
	Items Store
	Log   *zap.Logger
}

func NewHandler(items Store, logger *zap.Logger) *Handler {
	return &Handler{Items: items, Log: logger}
}

// actorOf picks the acting user: "actor" when given, else "author".
func actorOf(body map[string]any, fields map[string]string) (string, error) {
	actor, err := normalize.Text("actor", body["actor"])
	if err != nil {
		return "", err
	}
	if actor == "" && fields != nil {
		actor = fields["author"]
	}
	return actor, nil
}

func pathTarget(r *http.Request) (group, id string, err error) {
	group = chi.URLParam(r, "group")
	id = chi.URLParam(r, "id")
	if group == "" || id == "" {
		return "", "", apperr.Validation("group and id are required")
	}
	return group, id, nil
}

// HandleCreate handles POST /insertar_firestore_item.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "create item", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "create item", err)
		return
	}
	fields, err := entries.Items.Normalize(body)
	if err != nil {
		respond.Error(w, h.Log, "create item", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create item")
	defer cancel()

	id, err := h.Items.Create(ctx, group, fields)
	if err != nil {
		respond.Error(w, h.Log, "create item", err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, ID: id.Hex(), Message: "item saved"})
}

// HandleUpdate handles PUT /modificar_firestore/{group}/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	group, id, err := pathTarget(r)
	if err != nil {
		respond.Error(w, h.Log, "update item", err)
		return
	}
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "update item", err)
		return
	}
	fields, err := entries.Items.Normalize(body)
	if err != nil {
		respond.Error(w, h.Log, "update item", err)
		return
	}
	actor, err := actorOf(body, fields)
	if err != nil {
		respond.Error(w, h.Log, "update item", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update item")
	defer cancel()

	if err := h.Items.Update(ctx, group, id, fields, actor); err != nil {
		respond.Error(w, h.Log, "update item", err)
		return
	}
	respond.OK(w, "item updated")
}

// HandleDelete handles DELETE /eliminar_firestore/{group}/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	group, id, err := pathTarget(r)
	if err != nil {
		respond.Error(w, h.Log, "delete item", err)
		return
	}
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "delete item", err)
		return
	}
	actor, err := actorOf(body, nil)
	if err != nil {
		respond.Error(w, h.Log, "delete item", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete item")
	defer cancel()

	if err := h.Items.Delete(ctx, group, id, actor); err != nil {
		respond.Error(w, h.Log, "delete item", err)
		return
	}
	respond.OK(w, "item deleted")
}

// HandleQuery handles POST /obtener_datos.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "query items", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "query items", err)
		return
	}
	filters, err := normalize.Fields(body, entries.Items.Filters)
	if err != nil {
		respond.Error(w, h.Log, "query items", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "query items")
	defer cancel()

	items, err := h.Items.Query(ctx, group, filters)
	if err != nil {
		respond.Error(w, h.Log, "query items", err)
		return
	}
	respond.List(w, items)
}

// HandleVisited handles PUT /visitado/{group}/{id}.
func (h *Handler) HandleVisited(w http.ResponseWriter, r *http.Request) {
	group, id, err := pathTarget(r)
	if err != nil {
		respond.Error(w, h.Log, "set visited", err)
		return
	}
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "set visited", err)
		return
	}
	visited, err := normalize.Visited(body["visited"])
	if err != nil {
		respond.Error(w, h.Log, "set visited", err)
		return
	}
	actor, err := actorOf(body, nil)
	if err != nil {
		respond.Error(w, h.Log, "set visited", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "set visited")
	defer cancel()

	if err := h.Items.SetVisited(ctx, group, id, visited, actor); err != nil {
		respond.Error(w, h.Log, "set visited", err)
		return
	}
	respond.OK(w, `visited set to "`+visited+`"`)
}
