// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auth"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config selects where each group of events goes.
type Config struct {
	// Session covers sign-in and sign-out.
	Session string
	// Changes covers roster, schedule and attendance mutations.
	Changes string
}

// Actor identifies who performed an action. The zero Actor is a CLI run.
type Actor struct {
	ID   string
	Name string
	IP   string
}

// ActorFromRequest returns the signed-in member of r, plus the client IP.
func ActorFromRequest(r *http.Request) Actor {
	a := Actor{IP: clientIP(r)}
	if u, ok := auth.CurrentUser(r); ok {
		a.ID = u.ID
		a.Name = u.Name
	}
	return a
}

// Logger writes audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event according to the configuration. A nil Logger is a
// no-op so tests and tools can skip auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.config.Changes
	if event.Category == audit.CategorySession {
		setting = l.config.Session
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) change(ctx context.Context, a Actor, category, eventType, subject string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  category,
		EventType: eventType,
		ActorID:   a.ID,
		ActorName: a.Name,
		Subject:   subject,
		IP:        a.IP,
		Success:   true,
		Details:   details,
	})
}

// --- Session ---

// SignIn logs a successful command sign-in.
func (l *Logger) SignIn(ctx context.Context, a Actor, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySession,
		EventType: audit.EventSignInSuccess,
		ActorID:   a.ID,
		ActorName: a.Name,
		IP:        a.IP,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// SignInFailed logs a rejected sign-in. eventType is one of the
// audit.EventSignIn* failure types.
func (l *Logger) SignInFailed(ctx context.Context, a Actor, eventType, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySession,
		EventType:     eventType,
		ActorID:       a.ID,
		IP:            a.IP,
		Success:       false,
		FailureReason: reason,
	})
}

// SignOut logs a sign-out.
func (l *Logger) SignOut(ctx context.Context, a Actor) {
	l.change(ctx, a, audit.CategorySession, audit.EventSignOut, "", nil)
}

// --- Roster ---

// MemberCreated logs a new member.
func (l *Logger) MemberCreated(ctx context.Context, a Actor, memberID, name string) {
	l.change(ctx, a, audit.CategoryRoster, audit.EventMemberCreated, memberID, map[string]string{"name": name})
}

// MemberUpdated logs an edit of a member's fields.
func (l *Logger) MemberUpdated(ctx context.Context, a Actor, memberID string, fields []string) {
	l.change(ctx, a, audit.CategoryRoster, audit.EventMemberUpdated, memberID, map[string]string{"fields": strings.Join(fields, ",")})
}

// MemberActiveChanged logs a member entering or leaving the rotation.
func (l *Logger) MemberActiveChanged(ctx context.Context, a Actor, memberID string, active bool) {
	et := audit.EventMemberDeactivated
	if active {
		et = audit.EventMemberActivated
	}
	l.change(ctx, a, audit.CategoryRoster, et, memberID, nil)
}

// FixedRosterEdited logs an edit of one fixed-roster period.
func (l *Logger) FixedRosterEdited(ctx context.Context, a Actor, period string) {
	l.change(ctx, a, audit.CategoryRoster, audit.EventFixedRosterEdited, period, nil)
}

// --- Schedule ---

// ScheduleGenerated logs a first-time generation of a month.
func (l *Logger) ScheduleGenerated(ctx context.Context, a Actor, key, seed string, rosterSize int) {
	l.change(ctx, a, audit.CategorySchedule, audit.EventScheduleGenerated, key, map[string]string{
		"seed":        seed,
		"roster_size": strconv.Itoa(rosterSize),
	})
}

// ScheduleRegenerated logs a destructive regeneration.
func (l *Logger) ScheduleRegenerated(ctx context.Context, a Actor, key, seed string, rosterSize int, version int64) {
	l.change(ctx, a, audit.CategorySchedule, audit.EventScheduleRegenerated, key, map[string]string{
		"seed":        seed,
		"roster_size": strconv.Itoa(rosterSize),
		"version":     strconv.FormatInt(version, 10),
	})
}

// ScheduleOverride logs a manual edit of specific days.
func (l *Logger) ScheduleOverride(ctx context.Context, a Actor, key, kind string, days []int) {
	ds := make([]string, len(days))
	for i, d := range days {
		ds[i] = strconv.Itoa(d)
	}
	l.change(ctx, a, audit.CategorySchedule, audit.EventScheduleOverride, key, map[string]string{
		"kind": kind,
		"days": strings.Join(ds, ","),
	})
}

// --- Attendance ---

// PresenceChanged logs one attendance cell being set or cleared.
func (l *Logger) PresenceChanged(ctx context.Context, a Actor, ledgerKey, memberID string, month0, slot int, present bool) {
	et := audit.EventPresenceCleared
	if present {
		et = audit.EventPresenceSet
	}
	l.change(ctx, a, audit.CategoryAttendance, et, ledgerKey, map[string]string{
		"member_id": memberID,
		"month":     strconv.Itoa(month0),
		"slot":      strconv.Itoa(slot),
	})
}
