package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/store/outbox"
	"github.com/dalemusser/deruta/internal/app/system/txn"
	"github.com/dalemusser/deruta/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// outboxMirror returns a Mirror that never uses transactions.
func outboxMirror(db *mongo.Database) (*audit.Mirror, *outbox.Store) {
	ob := outbox.New(db)
	return audit.NewMirror(audit.New(db), ob, txn.New(nil, zap.NewNop()), zap.NewNop()), ob
}

func insertPlan(db *mongo.Database, id primitive.ObjectID, applyErr error) audit.Plan {
	return func(ctx context.Context) (*audit.Mutation, error) {
		doc := bson.M{"_id": id, "group": "Alpes", "name": "Lago"}
		return &audit.Mutation{
			Primary: "items",
			Group:   "Alpes",
			Action:  "create",
			Apply: func(ctx context.Context) error {
				if applyErr != nil {
					return applyErr
				}
				_, err := db.Collection("items").InsertOne(ctx, doc)
				return err
			},
			Record: audit.CreationRecord("Alpes", doc, time.Now().UTC()),
			Expect: outbox.Expectation{Collection: "items", ID: id, Exists: true},
		}, nil
	}
}

func TestMirror_OutboxModeWritesBoth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, ob := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	if err := m.Run(ctx, insertPlan(db, id, nil)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n, _ := db.Collection("items").CountDocuments(ctx, bson.M{"_id": id})
	if n != 1 {
		t.Errorf("expected primary document, got %d", n)
	}
	recs, _ := m.Store().Count(ctx, "items", "Alpes")
	if recs != 1 {
		t.Errorf("expected 1 audit record, got %d", recs)
	}
	pending, _ := ob.Count(ctx)
	if pending != 0 {
		t.Errorf("expected outbox to be empty, got %d", pending)
	}
}

func TestMirror_FailedApplyLeavesNoRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, ob := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := m.Run(ctx, insertPlan(db, primitive.NewObjectID(), boom))
	if !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}
	recs, _ := m.Store().Count(ctx, "items", "Alpes")
	if recs != 0 {
		t.Errorf("expected no audit record, got %d", recs)
	}
	pending, _ := ob.Count(ctx)
	if pending != 0 {
		t.Errorf("expected outbox to be empty, got %d", pending)
	}
}

func TestMirror_AuditFirstDiscardsOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, _ := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	boom := errors.New("boom")
	err := m.Run(ctx, func(ctx context.Context) (*audit.Mutation, error) {
		before := bson.M{"_id": id, "group": "Alpes", "name": "Lago"}
		return &audit.Mutation{
			Primary:    "items",
			Group:      "Alpes",
			Action:     "delete",
			AuditFirst: true,
			Apply:      func(ctx context.Context) error { return boom },
			Record:     audit.DeletionRecord("Alpes", id.Hex(), before, "ana", time.Now().UTC()),
			Expect:     outbox.Expectation{Collection: "items", ID: id, Exists: false},
		}, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}
	recs, _ := m.Store().Count(ctx, "items", "Alpes")
	if recs != 0 {
		t.Errorf("expected the early record to be discarded, got %d", recs)
	}
}

func TestMirror_ReplaySettlesEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, ob := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Entry whose primary write happened but whose record was never written.
	appliedID := primitive.NewObjectID()
	if _, err := db.Collection("items").InsertOne(ctx, bson.M{"_id": appliedID, "group": "Alpes"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := ob.Put(ctx, outbox.Entry{
		Action:          "create",
		AuditCollection: audit.CollectionName("items"),
		Record:          bson.M{"_id": primitive.NewObjectID(), "group": audit.GroupKey("Alpes")},
		Expect:          outbox.Expectation{Collection: "items", ID: appliedID, Exists: true},
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Entry whose primary write never happened, with an orphan record.
	orphanRec := primitive.NewObjectID()
	if err := m.Store().Insert(ctx, "items", bson.M{"_id": orphanRec, "group": audit.GroupKey("Alpes")}); err != nil {
		t.Fatalf("seed record failed: %v", err)
	}
	if _, err := ob.Put(ctx, outbox.Entry{
		Action:          "create",
		AuditCollection: audit.CollectionName("items"),
		Record:          bson.M{"_id": orphanRec, "group": audit.GroupKey("Alpes")},
		Expect:          outbox.Expectation{Collection: "items", ID: primitive.NewObjectID(), Exists: true},
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// A negative grace puts the cutoff ahead of the entries just written.
	res, err := m.Replay(ctx, -time.Second, 10)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if res.Mirrored != 1 || res.Discarded != 1 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	recs, _ := m.Store().Count(ctx, "items", "Alpes")
	if recs != 1 {
		t.Errorf("expected exactly the mirrored record, got %d", recs)
	}
	pending, _ := ob.Count(ctx)
	if pending != 0 {
		t.Errorf("expected outbox to be empty, got %d", pending)
	}
}

// replayCase seeds one outbox entry as a crashed outbox-mode mutation
// would leave it.
type replayCase struct {
	name       string
	primary    bson.M // document to seed in items; nil seeds nothing
	expect     outbox.Expectation
	seedRecord bool // the record was written before the crash
	wantRecord bool // the record must exist after replay
}

func TestMirror_ReplayChecksExpectedState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, ob := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Truncated like stored stamps so the round trip through the outbox
	// yields the same instant.
	visitedAt := time.Now().UTC().Truncate(time.Millisecond)

	updated := primitive.NewObjectID()
	stale := primitive.NewObjectID()
	visited := primitive.NewObjectID()
	notVisited := primitive.NewObjectID()
	kept := primitive.NewObjectID()
	gone := primitive.NewObjectID()

	cases := []replayCase{
		{
			name:       "update applied",
			primary:    bson.M{"_id": updated, "group": "Alpes", "name": "Lago Azul", "category": ""},
			expect:     outbox.Expectation{Collection: "items", ID: updated, Exists: true, Match: bson.M{"name": "Lago Azul", "category": ""}},
			wantRecord: true,
		},
		{
			name:       "update not applied",
			primary:    bson.M{"_id": stale, "group": "Alpes", "name": "Lago", "category": ""},
			expect:     outbox.Expectation{Collection: "items", ID: stale, Exists: true, Match: bson.M{"name": "Lago Verde", "category": ""}},
			seedRecord: true,
			wantRecord: false,
		},
		{
			name:    "visited applied",
			primary: bson.M{"_id": visited, "group": "Alpes", "visited": "SI", "visited_at": visitedAt},
			expect: outbox.Expectation{Collection: "items", ID: visited, Exists: true,
				Match: bson.M{"visited": "SI", "visited_at": visitedAt}},
			seedRecord: true,
			wantRecord: true,
		},
		{
			name:    "visited stamp differs",
			primary: bson.M{"_id": notVisited, "group": "Alpes", "visited": "SI", "visited_at": visitedAt.Add(-time.Minute)},
			expect: outbox.Expectation{Collection: "items", ID: notVisited, Exists: true,
				Match: bson.M{"visited": "SI", "visited_at": visitedAt}},
			seedRecord: true,
			wantRecord: false,
		},
		{
			name:       "delete not applied",
			primary:    bson.M{"_id": kept, "group": "Alpes", "name": "Lago"},
			expect:     outbox.Expectation{Collection: "items", ID: kept, Exists: false},
			seedRecord: true,
			wantRecord: false,
		},
		{
			name:       "delete applied",
			expect:     outbox.Expectation{Collection: "items", ID: gone, Exists: false},
			seedRecord: true,
			wantRecord: true,
		},
	}

	records := make([]primitive.ObjectID, len(cases))
	for i, c := range cases {
		if c.primary != nil {
			if _, err := db.Collection("items").InsertOne(ctx, c.primary); err != nil {
				t.Fatalf("%s: seed primary: %v", c.name, err)
			}
		}
		records[i] = primitive.NewObjectID()
		rec := bson.M{"_id": records[i], "group": audit.GroupKey("Alpes"), audit.FieldOriginalID: c.expect.ID.Hex()}
		if c.seedRecord {
			if err := m.Store().Insert(ctx, "items", rec); err != nil {
				t.Fatalf("%s: seed record: %v", c.name, err)
			}
		}
		if _, err := ob.Put(ctx, outbox.Entry{
			Action:          c.name,
			AuditCollection: audit.CollectionName("items"),
			Record:          rec,
			Expect:          c.expect,
		}); err != nil {
			t.Fatalf("%s: Put failed: %v", c.name, err)
		}
	}

	res, err := m.Replay(ctx, -time.Second, 20)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if res.Mirrored != 3 || res.Discarded != 3 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	auditColl := db.Collection(audit.CollectionName("items"))
	for i, c := range cases {
		n, err := auditColl.CountDocuments(ctx, bson.M{"_id": records[i]})
		if err != nil {
			t.Fatalf("%s: count: %v", c.name, err)
		}
		if (n == 1) != c.wantRecord {
			t.Errorf("%s: record present = %v, want %v", c.name, n == 1, c.wantRecord)
		}
	}
	if pending, _ := ob.Count(ctx); pending != 0 {
		t.Errorf("expected outbox to be empty, got %d", pending)
	}
}

func TestMirror_ReplayReportsStuckEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m, ob := outboxMirror(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	if _, err := db.Collection("items").InsertOne(ctx, bson.M{"_id": id, "group": "Alpes"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	for _, attempts := range []int{audit.StuckAttempts - 1, audit.StuckAttempts} {
		if _, err := ob.Put(ctx, outbox.Entry{
			Action:          "create",
			AuditCollection: audit.CollectionName("items"),
			Record:          bson.M{"_id": primitive.NewObjectID(), "group": audit.GroupKey("Alpes")},
			Expect:          outbox.Expectation{Collection: "items", ID: id, Exists: true},
			Attempts:        attempts,
		}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	res, err := m.Replay(ctx, -time.Second, 10)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if res.Stuck != 1 {
		t.Errorf("Stuck = %d, want 1", res.Stuck)
	}
	if res.Mirrored != 2 {
		t.Errorf("stuck entries are still settled, Mirrored = %d, want 2", res.Mirrored)
	}
}
