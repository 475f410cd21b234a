package scheduling

import (
	"context"
	"sync"
	"time"

	attendancestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/attendance"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/override"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

type fakeMembers struct {
	mu      sync.Mutex
	members []models.Member
}

func (f *fakeMembers) List(ctx context.Context) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Member(nil), f.members...), nil
}

func (f *fakeMembers) ListActive(ctx context.Context) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Member
	for _, m := range f.members {
		if m.RosterActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembers) GetByID(ctx context.Context, id string) (models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Member{}, memberstore.ErrNotFound
}

func (f *fakeMembers) setActive(id string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.members {
		if f.members[i].ID == id {
			f.members[i].RosterActive = active
		}
	}
}

type fakeSchedules struct {
	mu     sync.Mutex
	months map[string]models.ScheduleMonth
	// conflicts forces the next n conditional writes to report a mismatch.
	conflicts int
	writes    int
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{months: map[string]models.ScheduleMonth{}}
}

func clone(m models.ScheduleMonth) models.ScheduleMonth {
	m.Days = append([]models.ScheduleDay(nil), m.Days...)
	return m
}

func (f *fakeSchedules) Get(ctx context.Context, year, month0 int) (models.ScheduleMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.months[models.ScheduleKey(year, month0)]
	if !ok {
		return models.ScheduleMonth{}, schedulestore.ErrNotFound
	}
	return clone(m), nil
}

func (f *fakeSchedules) Insert(ctx context.Context, m models.ScheduleMonth) (models.ScheduleMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.months[m.ID]; ok {
		return models.ScheduleMonth{}, schedulestore.ErrExists
	}
	m.Version = 1
	m.GeneratedAt = time.Now()
	f.months[m.ID] = clone(m)
	f.writes++
	return m, nil
}

func (f *fakeSchedules) Replace(ctx context.Context, m models.ScheduleMonth, expected int64) (models.ScheduleMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.months[m.ID]
	if !ok {
		return models.ScheduleMonth{}, schedulestore.ErrNotFound
	}
	if cur.Version != expected {
		return models.ScheduleMonth{}, schedulestore.ErrVersionMismatch
	}
	m.Version = expected + 1
	f.months[m.ID] = clone(m)
	f.writes++
	return m, nil
}

func (f *fakeSchedules) ApplyPatch(ctx context.Context, year, month0 int, p override.Patch, expected int64) (models.ScheduleMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.ScheduleKey(year, month0)
	cur, ok := f.months[key]
	if !ok {
		return models.ScheduleMonth{}, schedulestore.ErrNotFound
	}
	if expected != schedulestore.AnyVersion {
		if f.conflicts > 0 {
			f.conflicts--
			// Someone else wrote in between.
			cur.Version++
			f.months[key] = cur
			return models.ScheduleMonth{}, schedulestore.ErrVersionMismatch
		}
		if cur.Version != expected {
			return models.ScheduleMonth{}, schedulestore.ErrVersionMismatch
		}
	}
	out := override.Apply(cur, p)
	out.Version = cur.Version + 1
	f.months[key] = clone(out)
	f.writes++
	return out, nil
}

type fakeLedgers struct {
	mu        sync.Mutex
	ledgers   map[int]models.AttendanceLedger
	conflicts int
	// insertRaces makes the next n unconditional writes lose a duplicate-key
	// race against a concurrent first write of the year.
	insertRaces int
}

func newFakeLedgers() *fakeLedgers {
	return &fakeLedgers{ledgers: map[int]models.AttendanceLedger{}}
}

func (f *fakeLedgers) Get(ctx context.Context, year int) (models.AttendanceLedger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.ledgers[year]
	if !ok {
		return models.AttendanceLedger{ID: models.LedgerKey(year), Year: year}, nil
	}
	return l, nil
}

func (f *fakeLedgers) SetPresence(ctx context.Context, year int, memberID string, month0, slot int, present bool, expected int64) (models.AttendanceLedger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.ledgers[year]
	if !ok {
		cur = models.AttendanceLedger{ID: models.LedgerKey(year), Year: year}
	}
	if expected == attendancestore.AnyVersion && f.insertRaces > 0 {
		f.insertRaces--
		cur.Version++
		f.ledgers[year] = cur
		return models.AttendanceLedger{}, attendancestore.ErrVersionMismatch
	}
	if expected != attendancestore.AnyVersion {
		if f.conflicts > 0 {
			f.conflicts--
			cur.Version++
			f.ledgers[year] = cur
			return models.AttendanceLedger{}, attendancestore.ErrVersionMismatch
		}
		if cur.Version != expected {
			return models.AttendanceLedger{}, attendancestore.ErrVersionMismatch
		}
	}
	out := attendance.Set(cur, memberID, month0, slot, present)
	out.Version = cur.Version + 1
	f.ledgers[year] = out
	return out, nil
}
