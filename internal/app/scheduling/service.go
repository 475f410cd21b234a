// Package scheduling coordinates the duty schedule: it snapshots the ordered
// roster, seeds and generates months, applies overrides under optimistic
// concurrency, and records every change in the audit log.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/keyedlock"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/metrics"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/override"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rosterorder"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rotation"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the month has never been generated.
	ErrNotFound = errors.New("schedule not found")
	// ErrMonthExists is returned by Generate for a month already stored.
	// Use Regenerate to overwrite it.
	ErrMonthExists = errors.New("schedule already generated for this month")
	// ErrConflict is returned when concurrent writers kept changing the
	// document until the retry budget ran out. The caller may retry.
	ErrConflict = errors.New("schedule changed concurrently")
	// ErrInvalidMonth is returned for a month outside 0-11 or a bad year.
	ErrInvalidMonth = errors.New("invalid month")
	// ErrMemberNotFound is returned when reassigning to an unknown member.
	ErrMemberNotFound = errors.New("member not found")
	// ErrDayOutOfRange is returned for a day not in the month.
	ErrDayOutOfRange = override.ErrDayOutOfRange
)

// DefaultEpoch anchors epoch-seeded rotation.
var DefaultEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultRetries is the number of attempts for version-conditioned writes.
const DefaultRetries = 3

// Members is the membership source.
type Members interface {
	List(ctx context.Context) ([]models.Member, error)
	ListActive(ctx context.Context) ([]models.Member, error)
	GetByID(ctx context.Context, id string) (models.Member, error)
}

// Schedules persists months. Implemented by schedulestore.Store.
type Schedules interface {
	Get(ctx context.Context, year, month0 int) (models.ScheduleMonth, error)
	Insert(ctx context.Context, m models.ScheduleMonth) (models.ScheduleMonth, error)
	Replace(ctx context.Context, m models.ScheduleMonth, expected int64) (models.ScheduleMonth, error)
	ApplyPatch(ctx context.Context, year, month0 int, p override.Patch, expected int64) (models.ScheduleMonth, error)
}

// Config tunes the service.
type Config struct {
	Order   rosterorder.Config
	Epoch   time.Time
	Retries int
}

// Service implements schedule generation and overrides.
type Service struct {
	members   Members
	schedules Schedules
	sorter    *rosterorder.Sorter
	epoch     time.Time
	retries   int
	locks     *keyedlock.Locker

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New builds a Service. audit and m may be nil.
func New(members Members, schedules Schedules, cfg Config, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Service {
	if cfg.Epoch.IsZero() {
		cfg.Epoch = DefaultEpoch
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		members:   members,
		schedules: schedules,
		sorter:    rosterorder.New(cfg.Order),
		epoch:     cfg.Epoch,
		retries:   cfg.Retries,
		locks:     keyedlock.New(),
		audit:     audit,
		metrics:   m,
		log:       log,
	}
}

// Sorter exposes the roster ordering in use.
func (s *Service) Sorter() *rosterorder.Sorter {
	return s.sorter
}

// Epoch returns the rotation anchor date.
func (s *Service) Epoch() time.Time {
	return s.epoch
}

// Roster returns the active members in rotation order. Every operation reads
// it once and works from that snapshot.
func (s *Service) Roster(ctx context.Context) ([]models.Member, error) {
	active, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return s.sorter.Sort(active), nil
}

// FullRoster returns every member, active ones first in rotation order, then
// inactive ones in the same order.
func (s *Service) FullRoster(ctx context.Context) ([]models.Member, error) {
	all, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	sorted := s.sorter.Sort(all)
	out := make([]models.Member, 0, len(sorted))
	out = append(out, rosterorder.Active(sorted)...)
	for _, m := range sorted {
		if !m.RosterActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func checkMonth(year, month0 int) error {
	if !models.ValidMonth(month0) || year < 1970 || year > 9999 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidMonth, year, month0)
	}
	return nil
}

// Get loads a stored month.
func (s *Service) Get(ctx context.Context, year, month0 int) (models.ScheduleMonth, error) {
	if err := checkMonth(year, month0); err != nil {
		return models.ScheduleMonth{}, err
	}
	m, err := s.schedules.Get(ctx, year, month0)
	if errors.Is(err, schedulestore.ErrNotFound) {
		return models.ScheduleMonth{}, ErrNotFound
	}
	return m, err
}

// ResolveSeed decides how the month is anchored: continuation from the
// previous stored month when it has an assignee still on the roster,
// otherwise the epoch.
func (s *Service) ResolveSeed(ctx context.Context, year, month0 int, ordered []models.Member) (rotation.Seed, error) {
	py, pm := models.PrevMonth(year, month0)
	prev, err := s.schedules.Get(ctx, py, pm)
	if errors.Is(err, schedulestore.ErrNotFound) {
		return rotation.Seed{Epoch: s.epoch}, nil
	}
	if err != nil {
		return rotation.Seed{}, fmt.Errorf("load previous month: %w", err)
	}
	if c, ok := rotation.Continuation(prev, ordered); ok {
		return rotation.Seed{Continuation: &c, Epoch: s.epoch}, nil
	}
	return rotation.Seed{Epoch: s.epoch}, nil
}

func (s *Service) build(ctx context.Context, year, month0 int) (models.ScheduleMonth, error) {
	ordered, err := s.Roster(ctx)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	seed, err := s.ResolveSeed(ctx, year, month0, ordered)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	return rotation.Generate(year, month0, ordered, seed), nil
}

// Generate creates a month that has never been generated. It never
// overwrites: an existing month yields ErrMonthExists.
func (s *Service) Generate(ctx context.Context, actor auditlog.Actor, year, month0 int) (models.ScheduleMonth, error) {
	if err := checkMonth(year, month0); err != nil {
		return models.ScheduleMonth{}, err
	}
	m, err := s.build(ctx, year, month0)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	out, err := s.schedules.Insert(ctx, m)
	if errors.Is(err, schedulestore.ErrExists) {
		return models.ScheduleMonth{}, ErrMonthExists
	}
	if err != nil {
		return models.ScheduleMonth{}, err
	}

	s.metrics.Generated("generate", out.Seed.Kind)
	s.audit.ScheduleGenerated(ctx, actor, out.ID, out.Seed.Kind, out.RosterSize)
	s.log.Info("schedule generated",
		zap.String("month", out.ID),
		zap.String("seed", out.Seed.Kind),
		zap.Int("roster_size", out.RosterSize))
	return out, nil
}

// Regenerate rebuilds a month from the current roster and overwrites it,
// discarding every override. Regenerations of the same month are serialized;
// a month that does not exist yet is created.
func (s *Service) Regenerate(ctx context.Context, actor auditlog.Actor, year, month0 int) (models.ScheduleMonth, error) {
	if err := checkMonth(year, month0); err != nil {
		return models.ScheduleMonth{}, err
	}
	key := models.ScheduleKey(year, month0)
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	defer unlock()

	m, err := s.build(ctx, year, month0)
	if err != nil {
		return models.ScheduleMonth{}, err
	}

	var out models.ScheduleMonth
	for attempt := 1; ; attempt++ {
		cur, err := s.schedules.Get(ctx, year, month0)
		switch {
		case errors.Is(err, schedulestore.ErrNotFound):
			out, err = s.schedules.Insert(ctx, m)
			if errors.Is(err, schedulestore.ErrExists) {
				err = schedulestore.ErrVersionMismatch
			}
		case err != nil:
			return models.ScheduleMonth{}, err
		default:
			out, err = s.schedules.Replace(ctx, m, cur.Version)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, schedulestore.ErrVersionMismatch) && !errors.Is(err, schedulestore.ErrNotFound) {
			return models.ScheduleMonth{}, err
		}
		if attempt >= s.retries {
			s.metrics.Conflict("regenerate", true)
			return models.ScheduleMonth{}, ErrConflict
		}
		s.metrics.Conflict("regenerate", false)
	}

	s.metrics.Generated("regenerate", out.Seed.Kind)
	s.audit.ScheduleRegenerated(ctx, actor, out.ID, out.Seed.Kind, out.RosterSize, out.Version)
	s.log.Warn("schedule regenerated; overrides discarded",
		zap.String("month", out.ID),
		zap.String("seed", out.Seed.Kind),
		zap.Int64("version", out.Version))
	return out, nil
}

// Reassign sets one day's duty-bearer; a nil memberID records an explicit
// vacancy. It is a field-level write of that day and does not conflict with
// concurrent edits of other days.
func (s *Service) Reassign(ctx context.Context, actor auditlog.Actor, year, month0, day int, memberID *string) (models.ScheduleMonth, error) {
	month, err := s.Get(ctx, year, month0)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	var target *models.Member
	if memberID != nil {
		m, err := s.members.GetByID(ctx, *memberID)
		if errors.Is(err, memberstore.ErrNotFound) {
			return models.ScheduleMonth{}, fmt.Errorf("%w: %s", ErrMemberNotFound, *memberID)
		}
		if err != nil {
			return models.ScheduleMonth{}, err
		}
		target = &m
	}
	p, err := override.Reassign(month, day, target)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	out, err := s.schedules.ApplyPatch(ctx, year, month0, p, schedulestore.AnyVersion)
	if errors.Is(err, schedulestore.ErrNotFound) {
		return models.ScheduleMonth{}, ErrNotFound
	}
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	s.recordOverride(ctx, actor, out.ID, "reassign", p)
	return out, nil
}

// ToggleVacancy clears an assigned day, or fills a vacant day with the first
// member of the current roster. With an empty roster a vacant day stays
// vacant.
func (s *Service) ToggleVacancy(ctx context.Context, actor auditlog.Actor, year, month0, day int) (models.ScheduleMonth, error) {
	ordered, err := s.Roster(ctx)
	if err != nil {
		return models.ScheduleMonth{}, err
	}
	var def *models.Member
	if len(ordered) > 0 {
		def = &ordered[0]
	}
	return s.conditional(ctx, actor, year, month0, "toggle", func(m models.ScheduleMonth) (override.Patch, error) {
		return override.ToggleVacancy(m, day, def)
	})
}

// Swap exchanges the assignments of two days.
func (s *Service) Swap(ctx context.Context, actor auditlog.Actor, year, month0, dayA, dayB int) (models.ScheduleMonth, error) {
	return s.conditional(ctx, actor, year, month0, "swap", func(m models.ScheduleMonth) (override.Patch, error) {
		return override.Swap(m, dayA, dayB)
	})
}

// conditional runs a read-plan-write cycle conditioned on the version read,
// re-reading and re-planning on a version mismatch.
func (s *Service) conditional(ctx context.Context, actor auditlog.Actor, year, month0 int, kind string, plan func(models.ScheduleMonth) (override.Patch, error)) (models.ScheduleMonth, error) {
	for attempt := 1; ; attempt++ {
		month, err := s.Get(ctx, year, month0)
		if err != nil {
			return models.ScheduleMonth{}, err
		}
		p, err := plan(month)
		if err != nil {
			return models.ScheduleMonth{}, err
		}
		if p.Empty() {
			return month, nil
		}

		out, err := s.schedules.ApplyPatch(ctx, year, month0, p, month.Version)
		if err == nil {
			s.recordOverride(ctx, actor, out.ID, kind, p)
			return out, nil
		}
		if errors.Is(err, schedulestore.ErrNotFound) {
			return models.ScheduleMonth{}, ErrNotFound
		}
		if !errors.Is(err, schedulestore.ErrVersionMismatch) {
			return models.ScheduleMonth{}, err
		}
		if attempt >= s.retries {
			s.metrics.Conflict(kind, true)
			s.log.Warn("override gave up after version conflicts",
				zap.String("month", month.ID),
				zap.String("kind", kind),
				zap.Int("attempts", attempt))
			return models.ScheduleMonth{}, ErrConflict
		}
		s.metrics.Conflict(kind, false)
	}
}

func (s *Service) recordOverride(ctx context.Context, actor auditlog.Actor, key, kind string, p override.Patch) {
	s.metrics.Override(kind)
	s.audit.ScheduleOverride(ctx, actor, key, kind, p.Days())
	s.log.Info("schedule override",
		zap.String("month", key),
		zap.String("kind", kind),
		zap.Ints("days", p.Days()))
}
