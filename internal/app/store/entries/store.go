// internal/app/store/entries/store.go
package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/store/outbox"
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/normalize"
	"github.com/dalemusser/deruta/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the current-state repository for one Kind. Every mutation goes
// through the audit mirror.
type Store[T any] struct {
	kind   Kind
	c      *mongo.Collection
	mirror *audit.Mirror
}

// New creates a Store for kind.
func New[T any](db *mongo.Database, kind Kind, mirror *audit.Mirror) *Store[T] {
	return &Store[T]{kind: kind, c: db.Collection(kind.Collection), mirror: mirror}
}

// NewItems creates the points-of-interest store.
func NewItems(db *mongo.Database, mirror *audit.Mirror) *Store[models.Item] {
	return New[models.Item](db, Items, mirror)
}

// NewCalendar creates the calendar store.
func NewCalendar(db *mongo.Database, mirror *audit.Mirror) *Store[models.CalendarEntry] {
	return New[models.CalendarEntry](db, Calendar, mirror)
}

// Kind returns the kind this store serves.
func (s *Store[T]) Kind() Kind { return s.kind }

// now is truncated to what MongoDB keeps so stored stamps compare equal.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func requireGroup(group string) error {
	if group == "" {
		return apperr.Validation(`missing field "group"`)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, apperr.Validation(`missing field "id"`)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("document not found")
	}
	return oid, nil
}

// Create stores a new document and mirrors it. Fields missing from fields
// are stored as "".
func (s *Store[T]) Create(ctx context.Context, group string, fields map[string]string) (primitive.ObjectID, error) {
	if err := requireGroup(group); err != nil {
		return primitive.NilObjectID, err
	}
	fields = s.kind.complete(fields)
	if err := s.kind.checkRequired(fields); err != nil {
		return primitive.NilObjectID, err
	}

	id := primitive.NewObjectID()
	at := now()
	doc := bson.M{"_id": id, "group": group, "created_at": at}
	for k, v := range fields {
		doc[k] = v
	}

	err := s.mirror.Run(ctx, func(ctx context.Context) (*audit.Mutation, error) {
		return &audit.Mutation{
			Primary: s.kind.Collection,
			Group:   group,
			Action:  "create",
			Apply: func(ctx context.Context) error {
				if _, err := s.c.InsertOne(ctx, doc); err != nil {
					return apperr.Persistence("could not store document", err)
				}
				return nil
			},
			Record: audit.CreationRecord(group, doc, at),
			Expect: outbox.Expectation{Collection: s.kind.Collection, ID: id, Exists: true},
		}, nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

// snapshot loads the raw current document for audit purposes.
func (s *Store[T]) snapshot(ctx context.Context, group string, oid primitive.ObjectID) (bson.M, error) {
	var doc bson.M
	err := s.c.FindOne(ctx, bson.M{"_id": oid, "group": group}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("document not found")
	}
	if err != nil {
		return nil, apperr.Persistence("could not read document", err)
	}
	return doc, nil
}

// Update rewrites every mutable field. created_at is left alone.
func (s *Store[T]) Update(ctx context.Context, group, id string, fields map[string]string, actor string) error {
	if err := requireGroup(group); err != nil {
		return err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	fields = s.kind.complete(fields)
	if err := s.kind.checkRequired(fields); err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	filter := bson.M{"_id": oid, "group": group}

	return s.mirror.Run(ctx, func(ctx context.Context) (*audit.Mutation, error) {
		before, err := s.snapshot(ctx, group, oid)
		if err != nil {
			return nil, err
		}
		return &audit.Mutation{
			Primary: s.kind.Collection,
			Group:   group,
			Action:  "update",
			Apply: func(ctx context.Context) error {
				res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
				if err != nil {
					return apperr.Persistence("could not update document", err)
				}
				if res.MatchedCount == 0 {
					return apperr.NotFound("document not found")
				}
				return nil
			},
			Record: audit.ModificationRecord(group, id, before, fields, actor, now()),
			Expect: outbox.Expectation{Collection: s.kind.Collection, ID: oid, Exists: true, Match: set},
		}, nil
	})
}

// Delete removes a document after recording its last state.
func (s *Store[T]) Delete(ctx context.Context, group, id, actor string) error {
	if err := requireGroup(group); err != nil {
		return err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid, "group": group}

	return s.mirror.Run(ctx, func(ctx context.Context) (*audit.Mutation, error) {
		before, err := s.snapshot(ctx, group, oid)
		if err != nil {
			return nil, err
		}
		return &audit.Mutation{
			Primary:    s.kind.Collection,
			Group:      group,
			Action:     "delete",
			AuditFirst: true,
			Apply: func(ctx context.Context) error {
				res, err := s.c.DeleteOne(ctx, filter)
				if err != nil {
					return apperr.Persistence("could not delete document", err)
				}
				if res.DeletedCount == 0 {
					return apperr.NotFound("document not found")
				}
				return nil
			},
			Record: audit.DeletionRecord(group, id, before, actor, now()),
			Expect: outbox.Expectation{Collection: s.kind.Collection, ID: oid, Exists: false},
		}, nil
	})
}

// SetVisited changes only the visited flag, stamping visited_at. A
// non-empty actor also becomes the document's author.
func (s *Store[T]) SetVisited(ctx context.Context, group, id, value, actor string) error {
	if !s.kind.Visitable {
		return apperr.Validation(s.kind.Collection + " do not have a visited flag")
	}
	if err := requireGroup(group); err != nil {
		return err
	}
	if value != normalize.VisitedYes && value != normalize.VisitedNo {
		return apperr.Validation(`visited must be "SI" or ""`)
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	at := now()
	set := bson.M{"visited": value, "visited_at": at}
	if actor != "" {
		set["author"] = actor
	}
	filter := bson.M{"_id": oid, "group": group}

	return s.mirror.Run(ctx, func(ctx context.Context) (*audit.Mutation, error) {
		before, err := s.snapshot(ctx, group, oid)
		if err != nil {
			return nil, err
		}
		return &audit.Mutation{
			Primary:    s.kind.Collection,
			Group:      group,
			Action:     "visited",
			AuditFirst: true,
			Apply: func(ctx context.Context) error {
				res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
				if err != nil {
					return apperr.Persistence("could not update visited flag", err)
				}
				if res.MatchedCount == 0 {
					return apperr.NotFound("document not found")
				}
				return nil
			},
			Record: audit.VisitRecord(group, id, before, value, actor, at),
			Expect: outbox.Expectation{
				Collection: s.kind.Collection,
				ID:         oid,
				Exists:     true,
				Match:      bson.M{"visited": value, "visited_at": at},
			},
		}, nil
	})
}

// Get returns one document.
func (s *Store[T]) Get(ctx context.Context, group, id string) (T, error) {
	var out T
	if err := requireGroup(group); err != nil {
		return out, err
	}
	oid, err := parseID(id)
	if err != nil {
		return out, err
	}
	err = s.c.FindOne(ctx, bson.M{"_id": oid, "group": group}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, apperr.NotFound("document not found")
	}
	if err != nil {
		return out, apperr.Persistence("could not read document", err)
	}
	return out, nil
}

// Query returns the group's documents matching every non-empty filter.
// Keys the kind does not filter on are ignored.
func (s *Store[T]) Query(ctx context.Context, group string, filters map[string]string) ([]T, error) {
	if err := requireGroup(group); err != nil {
		return nil, err
	}
	q := bson.M{"group": group}
	for _, name := range s.kind.Filters {
		if v := filters[name]; v != "" {
			q[name] = v
		}
	}

	cur, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, apperr.Persistence("could not query documents", err)
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Persistence("could not decode documents", fmt.Errorf("%s: %w", s.kind.Collection, err))
	}
	return out, nil
}
