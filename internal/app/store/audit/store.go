// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategorySession    = "session"
	CategoryRoster     = "roster"
	CategorySchedule   = "schedule"
	CategoryAttendance = "attendance"
)

// Session event types
const (
	EventSignInSuccess       = "sign_in_success"
	EventSignInWrongPasscode = "sign_in_wrong_passcode"
	EventSignInNotCommand    = "sign_in_not_command"
	EventSignInRateLimited   = "sign_in_rate_limited"
	EventSignOut             = "sign_out"
)

// Roster event types
const (
	EventMemberCreated     = "member_created"
	EventMemberUpdated     = "member_updated"
	EventMemberActivated   = "member_activated"
	EventMemberDeactivated = "member_deactivated"
	EventFixedRosterEdited = "fixed_roster_edited"
)

// Schedule event types. Regeneration is destructive; overrides are additive.
const (
	EventScheduleGenerated   = "schedule_generated"
	EventScheduleRegenerated = "schedule_regenerated"
	EventScheduleOverride    = "schedule_override"
)

// Attendance event types
const (
	EventPresenceSet     = "presence_set"
	EventPresenceCleared = "presence_cleared"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// ActorID is the signed-in member; empty for CLI runs.
	ActorID   string `bson:"actor_id,omitempty"`
	ActorName string `bson:"actor_name,omitempty"`
	// Subject is what the event is about: a month key, ledger key or member id.
	Subject string `bson:"subject,omitempty"`

	IP string `bson:"ip,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	ActorID   string
	Subject   string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.ActorID != "" {
		q["actor_id"] = f.ActorID
	}
	if f.Subject != "" {
		q["subject"] = f.Subject
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Query retrieves audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the number of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// GetBySubject retrieves recent events about one month, ledger or member.
func (s *Store) GetBySubject(ctx context.Context, subject string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Subject: subject, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
