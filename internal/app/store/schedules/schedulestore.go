// internal/app/store/schedules/schedulestore.go
package schedulestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/override"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when the month has never been generated.
	ErrNotFound = errors.New("schedule not found")
	// ErrExists is returned by Insert when the month is already stored.
	ErrExists = errors.New("schedule already exists")
	// ErrVersionMismatch is returned by conditional writes when the stored
	// version differs from the expected one.
	ErrVersionMismatch = errors.New("schedule version changed")
)

// AnyVersion disables the version condition of ApplyPatch.
const AnyVersion int64 = -1

// Store provides access to the schedules collection. One document per month,
// keyed "YYYY-MM".
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("schedules")}
}

// Get loads a month.
func (s *Store) Get(ctx context.Context, year, month0 int) (models.ScheduleMonth, error) {
	var m models.ScheduleMonth
	err := s.c.FindOne(ctx, bson.M{"_id": models.ScheduleKey(year, month0)}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ScheduleMonth{}, ErrNotFound
	}
	if err != nil {
		return models.ScheduleMonth{}, fmt.Errorf("get schedule %s: %w", models.ScheduleKey(year, month0), err)
	}
	return m, nil
}

// ListYear returns the stored months of a year in calendar order.
func (s *Store) ListYear(ctx context.Context, year int) ([]models.ScheduleMonth, error) {
	opts := options.Find().SetSort(bson.D{{Key: "month", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"year": year}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ScheduleMonth{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores a newly generated month at version 1. It never overwrites.
func (s *Store) Insert(ctx context.Context, m models.ScheduleMonth) (models.ScheduleMonth, error) {
	now := time.Now().UTC()
	m.ID = models.ScheduleKey(m.Year, m.Month)
	m.Version = 1
	m.GeneratedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ScheduleMonth{}, ErrExists
		}
		return models.ScheduleMonth{}, fmt.Errorf("insert schedule %s: %w", m.ID, err)
	}
	return m, nil
}

// Replace overwrites a stored month whose version is still expected, bumping
// the version. Every override recorded on the month is discarded.
func (s *Store) Replace(ctx context.Context, m models.ScheduleMonth, expected int64) (models.ScheduleMonth, error) {
	now := time.Now().UTC()
	m.ID = models.ScheduleKey(m.Year, m.Month)
	m.Version = expected + 1
	m.GeneratedAt = now
	m.UpdatedAt = now

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": m.ID, "version": expected}, m)
	if err != nil {
		return models.ScheduleMonth{}, fmt.Errorf("replace schedule %s: %w", m.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.ScheduleMonth{}, s.missOrMismatch(ctx, m.ID)
	}
	return m, nil
}

// ApplyPatch writes only the days named in the patch with field-level $set
// and increments the version. With expected != AnyVersion the write only
// happens if the stored version still matches.
func (s *Store) ApplyPatch(ctx context.Context, year, month0 int, p override.Patch, expected int64) (models.ScheduleMonth, error) {
	key := models.ScheduleKey(year, month0)
	if p.Empty() {
		return s.Get(ctx, year, month0)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for _, c := range p.Changes {
		set[fmt.Sprintf("days.%d", c.Index)] = c.Day
	}
	filter := bson.M{"_id": key}
	if expected != AnyVersion {
		filter["version"] = expected
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.ScheduleMonth
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if expected == AnyVersion {
			return models.ScheduleMonth{}, ErrNotFound
		}
		return models.ScheduleMonth{}, s.missOrMismatch(ctx, key)
	}
	if err != nil {
		return models.ScheduleMonth{}, fmt.Errorf("patch schedule %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) missOrMismatch(ctx context.Context, key string) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("check schedule %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

// Watch streams the month document after every change until ctx ends or fn
// returns an error. It requires a replica set (change streams).
func (s *Store) Watch(ctx context.Context, year, month0 int, fn func(models.ScheduleMonth) error) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": models.ScheduleKey(year, month0)}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := s.c.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("watch schedule: %w", err)
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var ev struct {
			FullDocument *models.ScheduleMonth `bson:"fullDocument"`
		}
		if err := cs.Decode(&ev); err != nil {
			return fmt.Errorf("decode schedule change: %w", err)
		}
		if ev.FullDocument == nil {
			continue
		}
		if err := fn(*ev.FullDocument); err != nil {
			return err
		}
	}
	if err := cs.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
