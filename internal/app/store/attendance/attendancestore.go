// internal/app/store/attendance/attendancestore.go
package attendancestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrVersionMismatch is returned by conditional writes when the ledger
	// changed since it was read.
	ErrVersionMismatch = errors.New("attendance ledger version changed")
	// ErrBadMemberID is returned for ids that cannot be used as a field name.
	ErrBadMemberID = errors.New("invalid member id")
)

// AnyVersion disables the version condition of SetPresence.
const AnyVersion int64 = -1

// Store provides access to the attendance collection: one ledger document per
// year, created on first write.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

// Get returns the ledger for a year. A year with no marks yet yields an empty
// ledger at version 0 rather than an error.
func (s *Store) Get(ctx context.Context, year int) (models.AttendanceLedger, error) {
	var l models.AttendanceLedger
	err := s.c.FindOne(ctx, bson.M{"_id": models.LedgerKey(year)}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AttendanceLedger{ID: models.LedgerKey(year), Year: year, Marks: map[string]map[string]bool{}}, nil
	}
	if err != nil {
		return models.AttendanceLedger{}, fmt.Errorf("get ledger %d: %w", year, err)
	}
	if l.Marks == nil {
		l.Marks = map[string]map[string]bool{}
	}
	return l, nil
}

func markPath(memberID string, month0, slot int) (string, error) {
	if memberID == "" || strings.ContainsAny(memberID, ".$") {
		return "", ErrBadMemberID
	}
	return "marks." + memberID + "." + models.SlotKey(month0, slot), nil
}

// SetPresence sets (present=true) or removes (present=false) one cell with a
// field-level write; no other cell is touched. Repeating the call is a no-op
// apart from the version bump. With expected != AnyVersion the write only
// applies if the ledger is still at that version (0 for a ledger not yet
// created).
func (s *Store) SetPresence(ctx context.Context, year int, memberID string, month0, slot int, present bool, expected int64) (models.AttendanceLedger, error) {
	path, err := markPath(memberID, month0, slot)
	if err != nil {
		return models.AttendanceLedger{}, err
	}

	update := bson.M{
		"$set": bson.M{"year": year, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	if present {
		update["$set"].(bson.M)[path] = true
	} else {
		update["$unset"] = bson.M{path: ""}
	}

	filter := bson.M{"_id": models.LedgerKey(year)}
	if expected > 0 {
		filter["version"] = expected
	} else if expected == 0 {
		// Only matches a ledger that does not exist yet; the upsert then
		// races on _id and a loser gets a duplicate key.
		filter["version"] = bson.M{"$exists": false}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var l models.AttendanceLedger
	err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&l)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.AttendanceLedger{}, ErrVersionMismatch
		}
		return models.AttendanceLedger{}, fmt.Errorf("set presence: %w", err)
	}
	if l.Marks == nil {
		l.Marks = map[string]map[string]bool{}
	}
	return l, nil
}

// Watch streams the ledger after every change until ctx ends or fn returns an
// error.
func (s *Store) Watch(ctx context.Context, year int, fn func(models.AttendanceLedger) error) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": models.LedgerKey(year)}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := s.c.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("watch ledger: %w", err)
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var ev struct {
			FullDocument *models.AttendanceLedger `bson:"fullDocument"`
		}
		if err := cs.Decode(&ev); err != nil {
			return fmt.Errorf("decode ledger change: %w", err)
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
