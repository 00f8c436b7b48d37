package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DocumentPinger is satisfied by *mongo.Client.
type DocumentPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// RelationalPinger is satisfied by *pgxpool.Pool.
type RelationalPinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Mongo    DocumentPinger
	Postgres RelationalPinger
	Log      *zap.Logger
}

// NewHandler constructs a health Handler over both stores.
func NewHandler(mongo DocumentPinger, pg RelationalPinger, logger *zap.Logger) *Handler {
	return &Handler{
		Mongo:    mongo,
		Postgres: pg,
		Log:      logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status     string `json:"status"`
	Documents  string `json:"documents"`
	Relational string `json:"relational"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "documents":"connected", "relational":"connected" }
//
// When either store fails its ping: 503 with the failing store marked
// "disconnected".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:     "ok",
		Documents:  "connected",
		Relational: "connected",
	}

	var failed error
	if err := h.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Documents = "disconnected"
		failed = err
	}
	if err := h.Postgres.Ping(ctx); err != nil {
		h.Log.Error("health-check: postgres ping failed", zap.Error(err))
		resp.Relational = "disconnected"
		if failed == nil {
			failed = err
		}
	}

	if failed != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Message = "Database unavailable"
		resp.Error = failed.Error()
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Alive handles GET / with a plain-text liveness line.
func (h *Handler) Alive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("deruta backend running\n"))
}
