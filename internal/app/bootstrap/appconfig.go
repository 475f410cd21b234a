// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rosterorder"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything about
// the duty rotation, the attendance grid and the command session lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret for signing session cookies
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Command access
	CommandRoles []string // roles allowed to mutate schedules, roster and attendance
	PasscodeHash string   // bcrypt hash of the shared command passcode; empty disables sign-in

	// Rotation
	Epoch   time.Time // day 1 anchor when there is no previous month to continue
	Order   rosterorder.Config
	Retries int           // attempts for version-conditioned writes
	AutoGen time.Duration // month-ahead generation interval; 0 disables the worker

	// Attendance grid
	Attendance attendance.Config

	// Audit logging destinations: all, db, log, off
	AuditLogSession string
	AuditLogChanges string

	Timeouts timeouts.Config
}
