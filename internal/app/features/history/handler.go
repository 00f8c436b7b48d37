// internal/app/features/history/handler.go
package history

import (
	"context"
	"net/http"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/store/entries"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/app/system/respond"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Reader reads audit records. *audit.Store implements it.
type Reader interface {
	History(ctx context.Context, primary string, f audit.HistoryFilter) ([]bson.M, error)
}

type Handler struct {
	Audit Reader
	Log   *zap.Logger
}

func NewHandler(r Reader, logger *zap.Logger) *Handler {
	return &Handler{Audit: r, Log: logger}
}

// kinds maps the public kind name to its primary collection.
var kinds = map[string]string{
	"items":    entries.Items.Collection,
	"calendar": entries.Calendar.Collection,
}

// HandleHistory handles POST /historial.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	body, err := respond.Body(r)
	if err != nil {
		respond.Error(w, h.Log, "read history", err)
		return
	}
	group, err := normalize.Required("group", body["group"])
	if err != nil {
		respond.Error(w, h.Log, "read history", err)
		return
	}
	kind, err := normalize.Required("kind", body["kind"])
	if err != nil {
		respond.Error(w, h.Log, "read history", err)
		return
	}
	primary, ok := kinds[kind]
	if !ok {
		respond.Error(w, h.Log, "read history", apperr.Validation(`kind must be "items" or "calendar"`))
		return
	}
	id, err := normalize.Text("id", body["id"])
	if err != nil {
		respond.Error(w, h.Log, "read history", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "read history")
	defer cancel()

	records, err := h.Audit.History(ctx, primary, audit.HistoryFilter{Group: group, OriginalID: id})
	if err != nil {
		respond.Error(w, h.Log, "read history", apperr.Persistence("could not read history", err))
		return
	}
	respond.List(w, records)
}
