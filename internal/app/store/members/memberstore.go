// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no member has the requested id.
	ErrNotFound = errors.New("member not found")
	// ErrDuplicateName is returned when another member already uses the
	// same (case- and accent-insensitive) display name.
	ErrDuplicateName = errors.New("a member with this name already exists")
	errNameRequired  = errors.New("member name is required")
)

// Store provides access to the members collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Create inserts a new member. The id is generated, the member starts in the
// rotation, and an empty code is stored as "-" (probationary).
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return models.Member{}, errNameRequired
	}
	m.ID = uuid.NewString()
	m.NameCI = text.Fold(m.Name)
	m.FullName = strings.TrimSpace(m.FullName)
	m.CumbraID = normalizeCode(m.CumbraID)
	m.Role = strings.TrimSpace(m.Role)
	m.RosterActive = true

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateName
		}
		return models.Member{}, err
	}
	return m, nil
}

// GetByID loads one member.
func (s *Store) GetByID(ctx context.Context, id string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// List returns every member sorted by folded name. Roster order is computed
// by the caller; storage order is only for stable listings.
func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	return s.find(ctx, bson.M{})
}

// ListActive returns the members currently in the rotation.
func (s *Store) ListActive(ctx context.Context) ([]models.Member, error) {
	return s.find(ctx, bson.M{"roster_active": true})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the editable fields of a member. Nil fields are left as is.
type Update struct {
	Name     *string
	FullName *string
	CumbraID *string
	Role     *string
}

// Update applies the non-nil fields and returns the stored member.
func (s *Store) Update(ctx context.Context, id string, u Update) (models.Member, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return models.Member{}, errNameRequired
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if u.FullName != nil {
		set["full_name"] = strings.TrimSpace(*u.FullName)
	}
	if u.CumbraID != nil {
		set["cumbra_id"] = normalizeCode(*u.CumbraID)
	}
	if u.Role != nil {
		set["role"] = strings.TrimSpace(*u.Role)
	}
	return s.update(ctx, id, set)
}

// SetActive moves a member in or out of the rotation.
func (s *Store) SetActive(ctx context.Context, id string, active bool) (models.Member, error) {
	return s.update(ctx, id, bson.M{"roster_active": active, "updated_at": time.Now().UTC()})
}

func (s *Store) update(ctx context.Context, id string, set bson.M) (models.Member, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Member
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateName
		}
		return models.Member{}, err
	}
	return m, nil
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "-"
	}
	return code
}
