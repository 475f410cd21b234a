package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the returned request adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateMember inserts an active roster member.
func (f *Fixtures) CreateMember(ctx context.Context, name, code, role string) models.Member {
	f.t.Helper()
	return f.insertMember(ctx, name, code, role, true)
}

// CreateInactiveMember inserts a member that is out of the rotation.
func (f *Fixtures) CreateInactiveMember(ctx context.Context, name, code, role string) models.Member {
	f.t.Helper()
	return f.insertMember(ctx, name, code, role, false)
}

func (f *Fixtures) insertMember(ctx context.Context, name, code, role string, active bool) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	if strings.TrimSpace(code) == "" {
		code = "-"
	}
	m := models.Member{
		ID:           uuid.NewString(),
		Name:         name,
		NameCI:       text.Fold(name),
		CumbraID:     code,
		Role:         role,
		RosterActive: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}
