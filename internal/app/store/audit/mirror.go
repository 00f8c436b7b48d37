// internal/app/store/audit/mirror.go
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/deruta/internal/app/store/outbox"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Mutation is one primary write together with the audit record that must
// accompany it.
type Mutation struct {
	Primary string // primary collection name ("items", "calendar")
	Group   string
	Action  string // create, update, delete, visited

	// Apply performs the primary write.
	Apply func(ctx context.Context) error

	// AuditFirst writes the record before Apply (delete and visited);
	// otherwise the record follows the primary write.
	AuditFirst bool

	Record bson.M
	Expect outbox.Expectation
}

// Plan builds a Mutation. It runs inside the transaction when one is
// available so that snapshot reads and the write see the same state.
type Plan func(ctx context.Context) (*Mutation, error)

// Mirror applies mutations so that each successful primary write leaves
// exactly one audit record.
//
// With transaction support the primary write and the record commit
// together. Without it, an outbox entry is stored first and removed once
// both writes are done; Replay settles entries left behind by a crash.
type Mirror struct {
	store  *Store
	outbox *outbox.Store
	txn    *txn.Runner
	log    *zap.Logger
}

// NewMirror wires a Mirror.
func NewMirror(store *Store, ob *outbox.Store, runner *txn.Runner, logger *zap.Logger) *Mirror {
	return &Mirror{store: store, outbox: ob, txn: runner, log: logger}
}

// Store exposes the underlying audit store for read paths.
func (m *Mirror) Store() *Store { return m.store }

// Run builds and applies a mutation.
func (m *Mirror) Run(ctx context.Context, plan Plan) error {
	if m.txn.Supported() {
		var mut *Mutation
		err := m.txn.Do(ctx, func(tctx context.Context) error {
			var err error
			mut, err = plan(tctx)
			if err != nil {
				return err
			}
			return m.applyBoth(tctx, mut)
		})
		if !errors.Is(err, txn.ErrNotSupported) {
			if err == nil {
				m.logMirrored(mut, "transaction")
			}
			return err
		}
	}
	return m.runWithOutbox(ctx, plan)
}

func (m *Mirror) applyBoth(ctx context.Context, mut *Mutation) error {
	rec := withID(mut.Record)
	if mut.AuditFirst {
		if err := m.store.Insert(ctx, mut.Primary, rec); err != nil {
			return apperr.Persistence("could not write audit record", err)
		}
		return mut.Apply(ctx)
	}
	if err := mut.Apply(ctx); err != nil {
		return err
	}
	if err := m.store.Insert(ctx, mut.Primary, rec); err != nil {
		return apperr.Persistence("could not write audit record", err)
	}
	return nil
}

func (m *Mirror) runWithOutbox(ctx context.Context, plan Plan) error {
	mut, err := plan(ctx)
	if err != nil {
		return err
	}
	rec := withID(mut.Record)
	recID := rec["_id"].(primitive.ObjectID)

	entry, err := m.outbox.Put(ctx, outbox.Entry{
		Action:          mut.Action,
		AuditCollection: CollectionName(mut.Primary),
		Record:          rec,
		Expect:          mut.Expect,
	})
	if err != nil {
		return apperr.Persistence("could not record pending audit entry", err)
	}

	if mut.AuditFirst {
		if err := m.store.Insert(ctx, mut.Primary, rec); err != nil {
			m.settle(ctx, entry)
			return apperr.Persistence("could not write audit record", err)
		}
		if err := mut.Apply(ctx); err != nil {
			// The mutation did not happen, so neither may its record.
			if derr := m.store.Discard(ctx, mut.Primary, recID); derr != nil {
				m.log.Warn("orphan audit record left for replay",
					zap.String("correlation", entry.Correlation), zap.Error(derr))
				return err
			}
			m.settle(ctx, entry)
			return err
		}
		m.settle(ctx, entry)
		m.logMirrored(mut, "outbox")
		return nil
	}

	if err := mut.Apply(ctx); err != nil {
		m.settle(ctx, entry)
		return err
	}
	if err := m.store.Insert(ctx, mut.Primary, rec); err != nil {
		m.log.Warn("audit write deferred to replay",
			zap.String("correlation", entry.Correlation),
			zap.String("collection", mut.Primary),
			zap.String("action", mut.Action),
			zap.Error(err))
		return nil
	}
	m.settle(ctx, entry)
	m.logMirrored(mut, "outbox")
	return nil
}

func (m *Mirror) settle(ctx context.Context, e outbox.Entry) {
	if err := m.outbox.Done(ctx, e.ID); err != nil {
		m.log.Warn("outbox entry not removed; replay will settle it",
			zap.String("correlation", e.Correlation), zap.Error(err))
	}
}

func (m *Mirror) logMirrored(mut *Mutation, mode string) {
	if mut == nil {
		return
	}
	m.log.Info("audit record mirrored",
		zap.Bool("audit", true),
		zap.String("collection", mut.Primary),
		zap.String("group", mut.Group),
		zap.String("action", mut.Action),
		zap.String("mode", mode))
}

// StuckAttempts is the number of failed settle attempts after which an
// outbox entry is reported as stuck on every pass.
const StuckAttempts = 5

// ReplayResult counts what a replay pass did. Stuck counts entries seen
// with at least StuckAttempts failed attempts; they are still retried.
type ReplayResult struct {
	Mirrored  int
	Discarded int
	Failed    int
	Stuck     int
}

// Replay settles outbox entries older than grace. When the primary state
// shows the mutation happened, the audit record is (re)inserted;
// otherwise any record already written for it is removed.
func (m *Mirror) Replay(ctx context.Context, grace time.Duration, limit int64) (ReplayResult, error) {
	var res ReplayResult

	entries, err := m.outbox.Pending(ctx, time.Now().UTC().Add(-grace), limit)
	if err != nil {
		return res, err
	}

	for _, e := range entries {
		if e.Attempts >= StuckAttempts {
			res.Stuck++
			m.log.Error("replay: outbox entry stuck",
				zap.String("correlation", e.Correlation),
				zap.String("action", e.Action),
				zap.String("collection", e.Expect.Collection),
				zap.Int("attempts", e.Attempts),
				zap.Time("created_at", e.CreatedAt))
		}

		primary := e.Expect.Collection
		applied, err := m.applied(ctx, e.Expect)
		if err != nil {
			res.Failed++
			_ = m.outbox.Touch(ctx, e.ID)
			m.log.Warn("replay: primary check failed", zap.String("correlation", e.Correlation), zap.Error(err))
			continue
		}

		if applied {
			err = m.store.Insert(ctx, primary, e.Record)
		} else if id, ok := e.Record["_id"].(primitive.ObjectID); ok {
			err = m.store.Discard(ctx, primary, id)
		}
		if err != nil {
			res.Failed++
			_ = m.outbox.Touch(ctx, e.ID)
			m.log.Warn("replay: audit write failed", zap.String("correlation", e.Correlation), zap.Error(err))
			continue
		}

		if err := m.outbox.Done(ctx, e.ID); err != nil {
			res.Failed++
			continue
		}
		if applied {
			res.Mirrored++
		} else {
			res.Discarded++
		}
		m.log.Info("replay: outbox entry settled",
			zap.Bool("audit", true),
			zap.String("correlation", e.Correlation),
			zap.String("action", e.Action),
			zap.Bool("applied", applied))
	}
	return res, nil
}

func (m *Mirror) applied(ctx context.Context, x outbox.Expectation) (bool, error) {
	filter := bson.M{"_id": x.ID}
	for k, v := range x.Match {
		filter[k] = v
	}
	n, err := m.store.db.Collection(x.Collection).CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return (n > 0) == x.Exists, nil
}

// withID returns rec with a fresh _id unless it already has one.
func withID(rec bson.M) bson.M {
	if _, ok := rec["_id"]; !ok {
		rec["_id"] = primitive.NewObjectID()
	}
	return rec
}
