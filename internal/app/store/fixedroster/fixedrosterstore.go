// internal/app/store/fixedroster/fixedrosterstore.go
package fixedrosterstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRowOutOfRange is returned for a row index outside the four periods.
var ErrRowOutOfRange = errors.New("fixed roster row out of range")

// Store provides access to the single fixed-roster document.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("fixed_roster")}
}

// Get returns the fixed roster, or the four empty default periods when it
// has never been edited.
func (s *Store) Get(ctx context.Context) (models.FixedRoster, error) {
	var fr models.FixedRoster
	err := s.c.FindOne(ctx, bson.M{"_id": models.FixedRosterID}).Decode(&fr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultFixedRoster(), nil
	}
	if err != nil {
		return models.FixedRoster{}, err
	}
	return fr, nil
}

// SetRow replaces the assignees of one period row. The period label and day
// range are kept.
func (s *Store) SetRow(ctx context.Context, row int, primary *models.MemberRef, aux [2]*models.MemberRef) (models.FixedRoster, error) {
	def := models.DefaultFixedRoster()
	if row < 0 || row >= len(def.Rows) {
		return models.FixedRoster{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}

	// Create the document with the default periods on first edit.
	seed := bson.M{"$setOnInsert": bson.M{"rows": def.Rows}}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": models.FixedRosterID}, seed, options.Update().SetUpsert(true)); err != nil {
		return models.FixedRoster{}, err
	}

	prefix := fmt.Sprintf("rows.%d.", row)
	update := bson.M{"$set": bson.M{
		prefix + "primary":   primary,
		prefix + "auxiliary": aux,
		"updated_at":         time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var fr models.FixedRoster
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": models.FixedRosterID}, update, opts).Decode(&fr); err != nil {
		return models.FixedRoster{}, err
	}
	return fr, nil
}
