// internal/app/store/audit/store.go
package audit

import (
	"context"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and appends audit records. Records are never updated; the
// only removal is Discard, used for records of mutations that did not
// happen.
type Store struct {
	db *mongo.Database
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(primary string) *mongo.Collection {
	return s.db.Collection(CollectionName(primary))
}

// Insert appends rec to the audit collection paired with primary. rec must
// carry its _id; inserting the same _id twice is a no-op.
func (s *Store) Insert(ctx context.Context, primary string, rec bson.M) error {
	_, err := s.coll(primary).InsertOne(ctx, rec)
	if err != nil && wafflemongo.IsDup(err) {
		return nil
	}
	return err
}

// Discard removes a record by id. A missing record is not an error.
func (s *Store) Discard(ctx context.Context, primary string, id primitive.ObjectID) error {
	_, err := s.coll(primary).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// HistoryFilter selects audit records for one group.
type HistoryFilter struct {
	Group      string
	OriginalID string // optional
	Limit      int64
}

// History returns audit records for a group, newest first.
func (s *Store) History(ctx context.Context, primary string, f HistoryFilter) ([]bson.M, error) {
	query := bson.M{FieldGroup: GroupKey(f.Group)}
	if f.OriginalID != "" {
		query[FieldOriginalID] = f.OriginalID
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.coll(primary).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := []bson.M{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of audit records for a group.
func (s *Store) Count(ctx context.Context, primary, group string) (int64, error) {
	return s.coll(primary).CountDocuments(ctx, bson.M{FieldGroup: GroupKey(group)})
}
