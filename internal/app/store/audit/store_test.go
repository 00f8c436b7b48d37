package audit_test

import (
	"testing"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_InsertIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := bson.M{"_id": primitive.NewObjectID(), "group": audit.GroupKey("Alpes"), "name": "Lago"}
	if err := store.Insert(ctx, "items", rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "items", rec); err != nil {
		t.Fatalf("second Insert should be a no-op, got %v", err)
	}

	n, err := store.Count(ctx, "items", "Alpes")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestStore_HistoryFiltersAndOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, op := range []string{audit.OpModified, audit.OpVisited, audit.OpDeleted} {
		rec := bson.M{
			"_id":                 primitive.NewObjectID(),
			"group":               audit.GroupKey("Alpes"),
			audit.FieldOriginalID: "item-1",
			audit.FieldOperation:  op,
			"seq":                 i,
		}
		if err := store.Insert(ctx, "items", rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	other := bson.M{"_id": primitive.NewObjectID(), "group": audit.GroupKey("Pirineos"), audit.FieldOriginalID: "item-1"}
	if err := store.Insert(ctx, "items", other); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	recs, err := store.History(ctx, "items", audit.HistoryFilter{Group: "Alpes", OriginalID: "item-1"})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0][audit.FieldOperation] != audit.OpDeleted {
		t.Errorf("expected newest first, got %v", recs[0][audit.FieldOperation])
	}
}

func TestStore_Discard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	if err := store.Insert(ctx, "calendar", bson.M{"_id": id, "group": audit.GroupKey("Alpes")}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Discard(ctx, "calendar", id); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	n, _ := store.Count(ctx, "calendar", "Alpes")
	if n != 0 {
		t.Errorf("expected record to be discarded, got %d", n)
	}
}
