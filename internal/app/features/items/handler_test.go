package items_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/deruta/internal/app/features/items"
	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/store/entries"
	"github.com/dalemusser/deruta/internal/app/store/outbox"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/txn"
	"github.com/dalemusser/deruta/internal/domain/models"
	"github.com/dalemusser/deruta/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	group, id, actor, visited string
	fields, filters           map[string]string
	err                       error
	items                     []models.Item
}

func (f *fakeStore) Create(_ context.Context, group string, fields map[string]string) (primitive.ObjectID, error) {
	f.group, f.fields = group, fields
	return primitive.NewObjectID(), f.err
}

func (f *fakeStore) Update(_ context.Context, group, id string, fields map[string]string, actor string) error {
	f.group, f.id, f.fields, f.actor = group, id, fields, actor
	return f.err
}

func (f *fakeStore) Delete(_ context.Context, group, id, actor string) error {
	f.group, f.id, f.actor = group, id, actor
	return f.err
}

func (f *fakeStore) Query(_ context.Context, group string, filters map[string]string) ([]models.Item, error) {
	f.group, f.filters = group, filters
	return f.items, f.err
}

func (f *fakeStore) SetVisited(_ context.Context, group, id, value, actor string) error {
	f.group, f.id, f.visited, f.actor = group, id, value, actor
	return f.err
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		storeErr   error
		wantStatus int
	}{
		{"name only", map[string]any{"group": "Alpes", "name": "Lago"}, nil, http.StatusOK},
		{"missing group", map[string]any{"name": "Lago"}, nil, http.StatusBadRequest},
		{"non-string field", map[string]any{"group": "Alpes", "name": 7}, nil, http.StatusBadRequest},
		{"store failure", map[string]any{"group": "Alpes"}, apperr.Persistence("could not store document", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{err: tt.storeErr}
			h := items.NewHandler(fs, zap.NewNop())

			rec := httptest.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/insertar_firestore_item", tt.body))

			testutil.AssertStatus(t, rec, tt.wantStatus)
			env := testutil.DecodeEnvelope(t, rec)
			if tt.wantStatus == http.StatusOK {
				if !env.Success || env.ID == "" {
					t.Errorf("unexpected envelope %+v", env)
				}
				if fs.fields["description"] != "" || fs.fields["name"] != "Lago" {
					t.Errorf("unexpected fields %v", fs.fields)
				}
				return
			}
			if env.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestHandleUpdate_ActorFallsBackToAuthor(t *testing.T) {
	fs := &fakeStore{}
	h := items.NewHandler(fs, zap.NewNop())

	req := testutil.NewJSONRequest(t, http.MethodPut, "/modificar_firestore/Alpes/abc",
		map[string]any{"name": "Lago Azul", "author": "luis"})
	req = testutil.WithChiURLParams(req, "group", "Alpes", "id", "abc")
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	if fs.group != "Alpes" || fs.id != "abc" || fs.actor != "luis" {
		t.Errorf("unexpected call: group=%q id=%q actor=%q", fs.group, fs.id, fs.actor)
	}
}

func TestHandleDelete_NotFound(t *testing.T) {
	fs := &fakeStore{err: apperr.NotFound("document not found")}
	h := items.NewHandler(fs, zap.NewNop())

	req := testutil.NewJSONRequest(t, http.MethodDelete, "/eliminar_firestore/Alpes/abc", map[string]any{"actor": "ana"})
	req = testutil.WithChiURLParams(req, "group", "Alpes", "id", "abc")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if fs.actor != "ana" {
		t.Errorf("actor: got %q", fs.actor)
	}
}

func TestHandleDelete_EmptyBody(t *testing.T) {
	fs := &fakeStore{}
	h := items.NewHandler(fs, zap.NewNop())

	req := testutil.WithChiURLParams(httptest.NewRequest(http.MethodDelete, "/x", nil), "group", "Alpes", "id", "abc")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestHandleVisited_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"SI", map[string]any{"visited": "SI"}, http.StatusOK},
		{"clear", map[string]any{"visited": ""}, http.StatusOK},
		{"other value", map[string]any{"visited": "NO"}, http.StatusBadRequest},
		{"absent", map[string]any{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := items.NewHandler(&fakeStore{}, zap.NewNop())
			req := testutil.NewJSONRequest(t, http.MethodPut, "/visitado/Alpes/abc", tt.body)
			req = testutil.WithChiURLParams(req, "group", "Alpes", "id", "abc")
			rec := httptest.NewRecorder()
			h.HandleVisited(rec, req)
			testutil.AssertStatus(t, rec, tt.want)
		})
	}
}

func TestHandleQuery(t *testing.T) {
	fs := &fakeStore{}
	h := items.NewHandler(fs, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleQuery(rec, testutil.NewJSONRequest(t, http.MethodPost, "/obtener_datos",
		map[string]any{"group": "Alpes", "category": "agua"}))

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := testutil.DecodeEnvelope(t, rec)
	if !env.Success || env.Message == "" {
		t.Errorf("empty result should be a success with a message, got %+v", env)
	}
	if fs.filters["category"] != "agua" || fs.filters["visited"] != "" {
		t.Errorf("unexpected filters %v", fs.filters)
	}
}

// TestRoutes_EndToEnd drives the real store through the router.
func TestRoutes_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := audit.NewMirror(audit.New(db), outbox.New(db), txn.New(db.Client(), zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	items.Register(r, items.NewHandler(entries.NewItems(db, m), zap.NewNop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/insertar_firestore_item",
		map[string]any{"group": "Alpes", "name": "Lago"}))
	testutil.AssertStatus(t, rec, http.StatusOK)
	id := testutil.DecodeEnvelope(t, rec).ID

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/modificar_firestore/Alpes/"+id,
		map[string]any{"name": "Lago Azul"}))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/obtener_datos", map[string]any{"group": "Alpes"}))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got []models.Item
	if err := json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lago Azul" || got[0].ID.Hex() != id {
		t.Errorf("unexpected items %+v", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodDelete, "/eliminar_firestore/Alpes/"+id, nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodDelete, "/eliminar_firestore/Alpes/"+id, nil))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}
