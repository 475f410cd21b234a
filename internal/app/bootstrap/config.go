// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rosterorder"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// DefaultCommandRoles may generate schedules, override days and record
// attendance.
var DefaultCommandRoles = []string{"Presidente", "Vice-presidente", "Secretário", "Sargento de Armas", "Tesoureiro"}

const epochLayout = "2006-01-02"

// appConfigKeys defines the configuration keys for Comando Central.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COMANDO_MONGO_URI, COMANDO_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
//
// List values are comma-separated.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "comando_central", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 2, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (at least 32 characters)"},
	{Name: "session_name", Default: "comando-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session lifetime"},

	{Name: "command_roles", Default: strings.Join(DefaultCommandRoles, ","), Desc: "Roles allowed to change schedules, roster and attendance"},
	{Name: "passcode_hash", Default: "", Desc: "bcrypt hash of the command passcode (dutyctl hash-passcode); empty disables sign-in"},

	{Name: "rotation_epoch", Default: "2026-01-01", Desc: "Rotation anchor date (YYYY-MM-DD) used when no previous month exists"},
	{Name: "numbered_direction", Default: "asc", Desc: "Order of numbered member codes: asc or desc"},
	{Name: "roles", Default: strings.Join(rosterorder.DefaultRoles, ","), Desc: "Role hierarchy, most senior first"},
	{Name: "pin_first", Default: "", Desc: "Probationary member ids that always sort first"},
	{Name: "pin_last", Default: "", Desc: "Probationary member ids that always sort last"},
	{Name: "override_retries", Default: 3, Desc: "Attempts for version-conditioned writes before reporting a conflict"},
	{Name: "auto_generate_interval", Default: "6h", Desc: "How often to generate the current and next month (0 disables)"},

	{Name: "attendance_events", Default: strings.Join(attendance.DefaultEvents, ","), Desc: "Monthly attendance events, one grid slot each"},
	{Name: "attendance_high", Default: "75", Desc: "Percentage at or above which attendance is nominal"},
	{Name: "attendance_low", Default: "40", Desc: "Percentage below which attendance is flagged"},

	{Name: "audit_log_session", Default: "all", Desc: "Sign-in event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_changes", Default: "all", Desc: "Change event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for generation and regeneration"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// WAFFLE_* and COMANDO_* environment variables and flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COMANDO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	epoch, err := time.Parse(epochLayout, strings.TrimSpace(appValues.String("rotation_epoch")))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("rotation_epoch: %w", err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(appValues.String("attendance_high")), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("attendance_high: %w", err)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(appValues.String("attendance_low")), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("attendance_low: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		CommandRoles: splitList(appValues.String("command_roles")),
		PasscodeHash: strings.TrimSpace(appValues.String("passcode_hash")),

		Epoch: epoch,
		Order: rosterorder.Config{
			Roles:             splitList(appValues.String("roles")),
			NumberedDirection: rosterorder.ParseDirection(appValues.String("numbered_direction")),
			PinFirst:          splitList(appValues.String("pin_first")),
			PinLast:           splitList(appValues.String("pin_last")),
		},
		Retries: appValues.Int("override_retries"),
		AutoGen: appValues.Duration("auto_generate_interval", 6*time.Hour),

		Attendance: attendance.Config{
			Events:     splitList(appValues.String("attendance_events")),
			Thresholds: attendance.Thresholds{High: high, Low: low},
		},

		AuditLogSession: appValues.String("audit_log_session"),
		AuditLogChanges: appValues.String("audit_log_changes"),

		Timeouts: timeouts.Config{
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},
	}

	if len(appCfg.CommandRoles) == 0 {
		appCfg.CommandRoles = DefaultCommandRoles
	}

	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// It catches configuration errors early, before connecting to MongoDB.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return errors.New("session_key must be set in production")
	}
	if err := appCfg.Attendance.Thresholds.Validate(); err != nil {
		return err
	}
	if len(appCfg.Attendance.Events) == 0 {
		return errors.New("attendance_events must name at least one event")
	}
	if appCfg.Retries < 1 {
		return fmt.Errorf("override_retries must be at least 1, got %d", appCfg.Retries)
	}
	for _, s := range []string{appCfg.AuditLogSession, appCfg.AuditLogChanges} {
		switch s {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("audit log destination %q: want all, db, log or off", s)
		}
	}
	if appCfg.PasscodeHash == "" {
		logger.Warn("passcode_hash not set: command sign-in is disabled")
	}
	return nil
}
