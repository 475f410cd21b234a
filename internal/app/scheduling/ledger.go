package scheduling

import (
	"context"
	"errors"
	"fmt"

	attendancestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/attendance"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/metrics"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rosterorder"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

// ErrOutOfGrid is returned for a month or slot outside the attendance grid.
var ErrOutOfGrid = attendance.ErrOutOfGrid

// Ledgers persists attendance. Implemented by attendancestore.Store.
type Ledgers interface {
	Get(ctx context.Context, year int) (models.AttendanceLedger, error)
	SetPresence(ctx context.Context, year int, memberID string, month0, slot int, present bool, expected int64) (models.AttendanceLedger, error)
}

// Ledger records presence and derives the attendance dashboard.
type Ledger struct {
	members Members
	ledgers Ledgers
	cfg     attendance.Config
	sorter  *rosterorder.Sorter
	retries int

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewLedger builds a Ledger. audit and m may be nil.
func NewLedger(members Members, ledgers Ledgers, cfg attendance.Config, sorter *rosterorder.Sorter, retries int, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Ledger {
	if len(cfg.Events) == 0 {
		cfg.Events = attendance.DefaultEvents
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	if sorter == nil {
		sorter = rosterorder.New(rosterorder.Config{})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		members: members,
		ledgers: ledgers,
		cfg:     cfg,
		sorter:  sorter,
		retries: retries,
		audit:   audit,
		metrics: m,
		log:     log,
	}
}

// Config returns the grid and band configuration.
func (l *Ledger) Config() attendance.Config {
	return l.cfg
}

// Get returns the ledger of a year; a year nobody has marked yet reads as an
// empty ledger at version 0.
func (l *Ledger) Get(ctx context.Context, year int) (models.AttendanceLedger, error) {
	if err := checkYear(year); err != nil {
		return models.AttendanceLedger{}, err
	}
	return l.ledgers.Get(ctx, year)
}

func checkYear(year int) error {
	if year < 1970 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidMonth, year)
	}
	return nil
}

func (l *Ledger) checkMember(ctx context.Context, memberID string) error {
	_, err := l.members.GetByID(ctx, memberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	return err
}

// SetPresence marks (present=true) or clears one cell. It is idempotent: the
// same call twice leaves the ledger in the same state.
func (l *Ledger) SetPresence(ctx context.Context, actor auditlog.Actor, year int, memberID string, month0, slot int, present bool) (models.AttendanceLedger, error) {
	if err := checkYear(year); err != nil {
		return models.AttendanceLedger{}, err
	}
	if err := l.cfg.CheckCell(month0, slot); err != nil {
		return models.AttendanceLedger{}, err
	}
	if err := l.checkMember(ctx, memberID); err != nil {
		return models.AttendanceLedger{}, err
	}

	// Two first writes of a year race on the insert; the loser retries as an
	// update of the ledger the winner created.
	for attempt := 1; ; attempt++ {
		out, err := l.ledgers.SetPresence(ctx, year, memberID, month0, slot, present, attendancestore.AnyVersion)
		if err == nil {
			l.record(ctx, actor, out.ID, memberID, month0, slot, present)
			return out, nil
		}
		if !errors.Is(err, attendancestore.ErrVersionMismatch) {
			return models.AttendanceLedger{}, err
		}
		if attempt >= l.retries {
			l.metrics.Conflict("presence_set", true)
			return models.AttendanceLedger{}, ErrConflict
		}
		l.metrics.Conflict("presence_set", false)
	}
}

// TogglePresence flips one cell, conditioned on the ledger version read, and
// returns the new state of the cell.
func (l *Ledger) TogglePresence(ctx context.Context, actor auditlog.Actor, year int, memberID string, month0, slot int) (bool, models.AttendanceLedger, error) {
	if err := checkYear(year); err != nil {
		return false, models.AttendanceLedger{}, err
	}
	if err := l.cfg.CheckCell(month0, slot); err != nil {
		return false, models.AttendanceLedger{}, err
	}
	if err := l.checkMember(ctx, memberID); err != nil {
		return false, models.AttendanceLedger{}, err
	}

	for attempt := 1; ; attempt++ {
		cur, err := l.ledgers.Get(ctx, year)
		if err != nil {
			return false, models.AttendanceLedger{}, err
		}
		present := !cur.Present(memberID, month0, slot)
		out, err := l.ledgers.SetPresence(ctx, year, memberID, month0, slot, present, cur.Version)
		if err == nil {
			l.record(ctx, actor, out.ID, memberID, month0, slot, present)
			return present, out, nil
		}
		if !errors.Is(err, attendancestore.ErrVersionMismatch) {
			return false, models.AttendanceLedger{}, err
		}
		if attempt >= l.retries {
			l.metrics.Conflict("presence_toggle", true)
			return false, models.AttendanceLedger{}, ErrConflict
		}
		l.metrics.Conflict("presence_toggle", false)
	}
}

func (l *Ledger) record(ctx context.Context, actor auditlog.Actor, key, memberID string, month0, slot int, present bool) {
	l.metrics.Presence(present)
	l.audit.PresenceChanged(ctx, actor, key, memberID, month0, slot, present)
	l.log.Info("presence changed",
		zap.String("ledger", key),
		zap.String("member_id", memberID),
		zap.Int("month", month0),
		zap.Int("slot", slot),
		zap.Bool("present", present))
}

// Dashboard is the attendance view of one year.
type Dashboard struct {
	Year       int                     `json:"year" yaml:"year"`
	Events     []string                `json:"events" yaml:"events"`
	Thresholds attendance.Thresholds   `json:"thresholds" yaml:"thresholds"`
	Members    []models.Member         `json:"members" yaml:"-"`
	Ledger     models.AttendanceLedger `json:"ledger" yaml:"-"`
	Ranking    []attendance.Stats      `json:"ranking" yaml:"ranking"`
	Average    float64                 `json:"average" yaml:"average"`
}

func (l *Ledger) load(ctx context.Context, year int) ([]models.Member, models.AttendanceLedger, error) {
	if err := checkYear(year); err != nil {
		return nil, models.AttendanceLedger{}, err
	}
	members, err := l.members.List(ctx)
	if err != nil {
		return nil, models.AttendanceLedger{}, fmt.Errorf("load members: %w", err)
	}
	led, err := l.ledgers.Get(ctx, year)
	if err != nil {
		return nil, models.AttendanceLedger{}, err
	}
	return l.sorter.Sort(members), led, nil
}

// Dashboard returns the grid rows in roster order plus the ranking and the
// club average.
func (l *Ledger) Dashboard(ctx context.Context, year int) (Dashboard, error) {
	members, led, err := l.load(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	ranking := l.cfg.RankAll(led, members)
	return Dashboard{
		Year:       year,
		Events:     l.cfg.Events,
		Thresholds: l.cfg.Thresholds,
		Members:    members,
		Ledger:     led,
		Ranking:    ranking,
		Average:    attendance.Average(ranking),
	}, nil
}

// MemberStats returns one member's figures, ranked among all members.
func (l *Ledger) MemberStats(ctx context.Context, year int, memberID string) (attendance.Stats, error) {
	members, led, err := l.load(ctx, year)
	if err != nil {
		return attendance.Stats{}, err
	}
	st, ok := l.cfg.ComputeStats(led, members, memberID)
	if !ok {
		return attendance.Stats{}, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	return st, nil
}
