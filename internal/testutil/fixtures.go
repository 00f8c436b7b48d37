package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/deruta/internal/app/system/pgdb"
	"github.com/dalemusser/deruta/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, key, value)
}

// WithChiURLParams adds several key/value URL parameters at once.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test data directly, bypassing the audit mirror.
type Fixtures struct {
	db *mongo.Database
	pg pgdb.Queryer
	t  *testing.T
}

// NewFixtures creates a Fixtures instance. Either store may be nil when the
// test does not need it.
func NewFixtures(t *testing.T, db *mongo.Database, pg pgdb.Queryer) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, pg: pg, t: t}
}

// CreateItem stores an item with the given name and blank optional fields.
func (f *Fixtures) CreateItem(ctx context.Context, group, name string) models.Item {
	f.t.Helper()

	item := models.Item{
		ID:        primitive.NewObjectID(),
		Group:     group,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("items").InsertOne(ctx, item); err != nil {
		f.t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// CreateCalendarEntry stores a calendar entry for the given day label.
func (f *Fixtures) CreateCalendarEntry(ctx context.Context, group, dayLabel string) models.CalendarEntry {
	f.t.Helper()

	entry := models.CalendarEntry{
		ID:        primitive.NewObjectID(),
		Group:     group,
		DayLabel:  dayLabel,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("calendar").InsertOne(ctx, entry); err != nil {
		f.t.Fatalf("failed to create test calendar entry: %v", err)
	}
	return entry
}

// CreateGroup inserts a trip group.
func (f *Fixtures) CreateGroup(ctx context.Context, name, passphrase string) models.Group {
	f.t.Helper()

	if _, err := f.pg.Exec(ctx, `INSERT INTO trip_groups (name, passphrase) VALUES ($1, $2)`, name, passphrase); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return models.Group{Name: name, Passphrase: passphrase}
}

// CreateMembership inserts a membership and returns it with its user id.
func (f *Fixtures) CreateMembership(ctx context.Context, email, nickname, group string, admin bool) models.Membership {
	f.t.Helper()

	m := models.Membership{Email: email, Nickname: nickname, GroupName: group, IsAdmin: admin}
	var adminFlag int16
	if admin {
		adminFlag = 1
	}
	err := f.pg.QueryRow(ctx,
		`INSERT INTO memberships (email, nickname, group_name, is_admin, notifications_enabled)
		 VALUES ($1, $2, $3, $4, 0) RETURNING user_id`,
		email, nickname, group, adminFlag).Scan(&m.UserID)
	if err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
