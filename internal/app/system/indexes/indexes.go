// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// index is one desired index. Names are part of the contract: an index with
// the same keys under another name, or a different uniqueness, is rebuilt.
type index struct {
	name   string
	keys   bson.D
	unique bool
}

var collections = []struct {
	name    string
	indexes []index
}{
	{"members", []index{
		// Display names are unique after case/diacritics folding.
		{name: "uniq_members_nameci", keys: bson.D{{Key: "name_ci", Value: 1}}, unique: true},
		{name: "idx_members_active_nameci", keys: bson.D{{Key: "roster_active", Value: 1}, {Key: "name_ci", Value: 1}}},
	}},
	// _id is "YYYY-MM"; year+month serves the yearly listing.
	{"schedules", []index{
		{name: "uniq_schedules_year_month", keys: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}, unique: true},
	}},
	{"attendance", []index{
		{name: "uniq_attendance_year", keys: bson.D{{Key: "year", Value: 1}}, unique: true},
	}},
	// the audit browser filters by subject, actor or type and pages by time
	{"audit_events", []index{
		{name: "idx_audit_timestamp", keys: bson.D{{Key: "timestamp", Value: -1}}},
		{name: "idx_audit_subject_timestamp", keys: bson.D{{Key: "subject", Value: 1}, {Key: "timestamp", Value: -1}}},
		{name: "idx_audit_actor_timestamp", keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{name: "idx_audit_category_type_timestamp", keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "event_type", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
	}},
}

/*
EnsureAll is called at startup and is idempotent. Problems from every
collection are collected into one error so startup fails with the full list.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range collections {
		if err := ensure(ctx, db.Collection(c.name), c.indexes); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) ([]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var out []existingIndex
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ensure(ctx context.Context, coll *mongo.Collection, want []index) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	var errs []string
	for _, ix := range want {
		if err := ensureOne(ctx, coll, existing, ix); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ix.name, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ensureOne drops whatever collides with ix (same keys or same name with
// different definition) and creates ix.
func ensureOne(ctx context.Context, coll *mongo.Collection, existing []existingIndex, ix index) error {
	sig := keySig(ix.keys)
	log := zap.L().With(
		zap.String("collection", coll.Name()),
		zap.String("name", ix.name),
		zap.String("keys", sig))

	for _, ex := range existing {
		sameKeys := keySig(ex.Key) == sig
		if !sameKeys && ex.Name != ix.name {
			continue
		}
		if sameKeys && ex.Name == ix.name && ex.Unique == ix.unique {
			log.Debug("index up to date")
			return nil
		}
		log.Info("replacing index", zap.String("existing", ex.Name), zap.Bool("unique", ix.unique))
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			return fmt.Errorf("drop %s: %w", ex.Name, err)
		}
	}

	opts := options.Index().SetName(ix.name)
	if ix.unique {
		opts.SetUnique(true)
	}
	start := time.Now()
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: ix.keys, Options: opts}); err != nil {
		if ix.unique && mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("cannot create unique index, duplicates present%s", duplicateHint(coll.Name(), sig))
		}
		return err
	}
	log.Info("index ensured", zap.Bool("unique", ix.unique), zap.Duration("took", time.Since(start)))
	return nil
}

// duplicateHint points at the aggregation that finds the offending rows.
func duplicateHint(coll, sig string) string {
	if coll == "members" && strings.Contains(sig, "name_ci:1") {
		return "; members share a display name. Example finder:\n" +
			`db.members.aggregate([{ $group: { _id: "$name_ci", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}
