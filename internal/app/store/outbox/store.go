// internal/app/store/outbox/store.go
//
// Package outbox persists audit records whose mirror write has not been
// confirmed yet. An entry is written before the primary mutation and
// removed once the audit record is stored; entries that survive a crash
// are settled by the mirror replay worker.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding pending entries.
const CollectionName = "audit_outbox"

// Expectation describes the primary document state that proves the
// mutation happened: a document with ID exists (or not) in Collection and,
// when Match is set, carries those field values.
type Expectation struct {
	Collection string             `bson:"collection"`
	ID         primitive.ObjectID `bson:"id"`
	Exists     bool               `bson:"exists"`
	Match      bson.M             `bson:"match,omitempty"`
}

// Entry is one pending audit record.
type Entry struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Correlation     string             `bson:"correlation"`
	Action          string             `bson:"action"`
	AuditCollection string             `bson:"audit_collection"`
	Record          bson.M             `bson:"record"`
	Expect          Expectation        `bson:"expect"`
	Attempts        int                `bson:"attempts"`
	CreatedAt       time.Time          `bson:"created_at"`
}

// Store manages outbox entries.
type Store struct {
	c *mongo.Collection
}

// New creates an outbox Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Put stores e and returns it with ID, correlation id and timestamp filled.
func (s *Store) Put(ctx context.Context, e Entry) (Entry, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Correlation == "" {
		e.Correlation = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Done removes a settled entry. Removing a missing entry is not an error.
func (s *Store) Done(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Pending returns up to limit entries created before cutoff, oldest first.
func (s *Store) Pending(ctx context.Context, cutoff time.Time, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := []Entry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Touch records a failed settle attempt.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"attempts": 1}})
	return err
}

// Count returns the number of entries still pending.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
