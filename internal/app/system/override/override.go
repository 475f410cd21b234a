// Package override plans manual edits to a generated ScheduleMonth.
//
// Planners never mutate their input. They return a Patch listing the days
// that change; the store persists exactly those days with field-level
// updates, so an override touches nothing else in the month or the roster.
package override

import (
	"errors"
	"fmt"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

// ErrDayOutOfRange is returned when a day number is not in the month.
var ErrDayOutOfRange = errors.New("day out of range")

// Change is the new content of one day. Index is the zero-based position in
// ScheduleMonth.Days.
type Change struct {
	Index int
	Day   models.ScheduleDay
}

// Patch is the set of day changes produced by a planner.
type Patch struct {
	Changes []Change
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Changes) == 0
}

// Days returns the 1-based day numbers touched by the patch.
func (p Patch) Days() []int {
	out := make([]int, len(p.Changes))
	for i, c := range p.Changes {
		out[i] = c.Day.Day
	}
	return out
}

func index(month models.ScheduleMonth, day int) (int, error) {
	if day < 1 || day > len(month.Days) {
		return 0, fmt.Errorf("%w: day %d of %s (1-%d)", ErrDayOutOfRange, day, month.ID, len(month.Days))
	}
	return day - 1, nil
}

func assign(d models.ScheduleDay, m *models.Member) models.ScheduleDay {
	if m == nil {
		d.MemberID = nil
		d.MemberName = ""
		return d
	}
	id := m.ID
	d.MemberID = &id
	d.MemberName = m.Name
	return d
}

// Reassign sets the duty-bearer of one day. A nil member records an explicit
// vacancy.
func Reassign(month models.ScheduleMonth, day int, m *models.Member) (Patch, error) {
	i, err := index(month, day)
	if err != nil {
		return Patch{}, err
	}
	return Patch{Changes: []Change{{Index: i, Day: assign(month.Days[i], m)}}}, nil
}

// ToggleVacancy clears an assigned day, or fills a vacant day with def. When
// def is nil (empty roster) a vacant day stays vacant and the patch is empty.
func ToggleVacancy(month models.ScheduleMonth, day int, def *models.Member) (Patch, error) {
	i, err := index(month, day)
	if err != nil {
		return Patch{}, err
	}
	cur := month.Days[i]
	if !cur.Vacant() {
		return Patch{Changes: []Change{{Index: i, Day: assign(cur, nil)}}}, nil
	}
	if def == nil {
		return Patch{}, nil
	}
	return Patch{Changes: []Change{{Index: i, Day: assign(cur, def)}}}, nil
}

// Swap exchanges the assignment (id and name snapshot) of two days. Vacancy
// swaps like any other assignment. Swapping a day with itself is a no-op.
func Swap(month models.ScheduleMonth, dayA, dayB int) (Patch, error) {
	a, err := index(month, dayA)
	if err != nil {
		return Patch{}, err
	}
	b, err := index(month, dayB)
	if err != nil {
		return Patch{}, err
	}
	if a == b {
		return Patch{}, nil
	}

	da, db := month.Days[a], month.Days[b]
	na, nb := da, db
	na.MemberID, na.MemberName = copyID(db.MemberID), db.MemberName
	nb.MemberID, nb.MemberName = copyID(da.MemberID), da.MemberName

	return Patch{Changes: []Change{{Index: a, Day: na}, {Index: b, Day: nb}}}, nil
}

func copyID(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Apply returns a copy of month with the patch applied. The input is left
// untouched.
func Apply(month models.ScheduleMonth, p Patch) models.ScheduleMonth {
	out := month
	out.Days = make([]models.ScheduleDay, len(month.Days))
	copy(out.Days, month.Days)
	for _, c := range p.Changes {
		if c.Index >= 0 && c.Index < len(out.Days) {
			out.Days[c.Index] = c.Day
		}
	}
	return out
}
