// Package dutyctl holds the configuration, wiring and output helpers of the
// dutyctl operator CLI.
package dutyctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rosterorder"
	"gopkg.in/yaml.v3"
)

// EnvPrefix matches the server, so one .env serves both.
const EnvPrefix = "COMANDO"

type ctxKey string

const configContextKey ctxKey = "dutyctl.config"

// WithContext stores cfg for the subcommands.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Config is read from defaults, then an optional YAML file, then COMANDO_*
// environment variables.
type Config struct {
	MongoURI          string        `yaml:"mongoUri"          envconfig:"MONGO_URI"`
	MongoDatabase     string        `yaml:"mongoDatabase"     envconfig:"MONGO_DATABASE"`
	RotationEpoch     string        `yaml:"rotationEpoch"     envconfig:"ROTATION_EPOCH"`
	NumberedDirection string        `yaml:"numberedDirection" envconfig:"NUMBERED_DIRECTION"`
	Roles             []string      `yaml:"roles"             envconfig:"ROLES"`
	PinFirst          []string      `yaml:"pinFirst"          envconfig:"PIN_FIRST"`
	PinLast           []string      `yaml:"pinLast"           envconfig:"PIN_LAST"`
	OverrideRetries   int           `yaml:"overrideRetries"   envconfig:"OVERRIDE_RETRIES"`
	AttendanceEvents  []string      `yaml:"attendanceEvents"  envconfig:"ATTENDANCE_EVENTS"`
	AttendanceHigh    float64       `yaml:"attendanceHigh"    envconfig:"ATTENDANCE_HIGH"`
	AttendanceLow     float64       `yaml:"attendanceLow"     envconfig:"ATTENDANCE_LOW"`
	AuditLogChanges   string        `yaml:"auditLogChanges"   envconfig:"AUDIT_LOG_CHANGES"`
	Timeout           time.Duration `yaml:"timeout"           envconfig:"TIMEOUT"`
}

// Defaults mirror the server's defaults.
func Defaults() Config {
	return Config{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "comando_central",
		RotationEpoch:     "2026-01-01",
		NumberedDirection: string(rosterorder.Ascending),
		OverrideRetries:   scheduling.DefaultRetries,
		AttendanceEvents:  append([]string(nil), attendance.DefaultEvents...),
		AttendanceHigh:    attendance.DefaultThresholds.High,
		AttendanceLow:     attendance.DefaultThresholds.Low,
		AuditLogChanges:   auditlog.All,
		Timeout:           30 * time.Second,
	}
}

// Load builds the config. configFile may be empty.
func Load(configFile string) (*Config, error) {
	cfg := Defaults()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.MongoURI) == "" || strings.TrimSpace(c.MongoDatabase) == "" {
		return errors.New("mongo uri and database are required")
	}
	if _, err := c.Epoch(); err != nil {
		return fmt.Errorf("rotationEpoch: %w", err)
	}
	if len(c.AttendanceEvents) == 0 {
		return errors.New("attendanceEvents must name at least one event")
	}
	return c.Attendance().Thresholds.Validate()
}

// Epoch parses RotationEpoch (YYYY-MM-DD, UTC).
func (c *Config) Epoch() (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(c.RotationEpoch))
}

// Order is the roster ordering configuration.
func (c *Config) Order() rosterorder.Config {
	return rosterorder.Config{
		Roles:             c.Roles,
		NumberedDirection: rosterorder.ParseDirection(c.NumberedDirection),
		PinFirst:          c.PinFirst,
		PinLast:           c.PinLast,
	}
}

// Attendance is the grid and band configuration.
func (c *Config) Attendance() attendance.Config {
	return attendance.Config{
		Events:     c.AttendanceEvents,
		Thresholds: attendance.Thresholds{High: c.AttendanceHigh, Low: c.AttendanceLow},
	}
}
