// Package rotation assigns the daily maintenance duty.
//
// Assignment is a pure function of the calendar date, the ordered active
// roster and an anchor: either an epoch date (day offset modulo roster size)
// or a continuation index carried over from the previous month.
package rotation

import (
	"fmt"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

// Weekdays are indexed by time.Weekday.
var Weekdays = [7]string{"DOMINGO", "SEGUNDA", "TERÇA", "QUARTA", "QUINTA", "SEXTA", "SÁBADO"}

// civil truncates t to its calendar date at UTC midnight.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (negative when
// b is before a). Clock time and location are ignored.
func DaysBetween(a, b time.Time) int {
	return int((civil(b).Unix() - civil(a).Unix()) / 86400)
}

// DaysIn returns the number of days of a zero-based month.
func DaysIn(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// mod is the non-negative remainder of a/n.
func mod(a, n int) int {
	return ((a % n) + n) % n
}

// Index returns the rotation position for date in a roster of size n, or -1
// when n is zero.
func Index(date time.Time, n int, epoch time.Time) int {
	if n <= 0 {
		return -1
	}
	return mod(DaysBetween(epoch, date), n)
}

// Assign returns the member on duty for date. ok is false when the roster is
// empty (the day is vacant).
func Assign(date time.Time, ordered []models.Member, epoch time.Time) (m models.Member, ok bool) {
	i := Index(date, len(ordered), epoch)
	if i < 0 {
		return models.Member{}, false
	}
	return ordered[i], true
}

// Seed anchors a generated month. When Continuation is set, day 1 gets the
// member at that roster position and each following day advances by one;
// otherwise every day is assigned from Epoch.
type Seed struct {
	Continuation *int
	Epoch        time.Time
}

// Model converts the seed to its persisted form.
func (s Seed) Model() models.ScheduleSeed {
	if s.Continuation != nil {
		c := *s.Continuation
		return models.ScheduleSeed{Kind: models.SeedContinuation, Continuation: &c}
	}
	return models.ScheduleSeed{Kind: models.SeedEpoch, Epoch: civil(s.Epoch)}
}

// Generate builds the full month for (year, month0) from an ordered active
// roster. An empty roster yields a month where every day is vacant. The
// result carries no timestamps or version; the store sets those.
func Generate(year, month0 int, ordered []models.Member, seed Seed) models.ScheduleMonth {
	n := len(ordered)
	days := DaysIn(year, month0)
	out := models.ScheduleMonth{
		ID:         models.ScheduleKey(year, month0),
		Year:       year,
		Month:      month0,
		Days:       make([]models.ScheduleDay, days),
		Seed:       seed.Model(),
		RosterSize: n,
	}

	for d := 1; d <= days; d++ {
		date := time.Date(year, time.Month(month0+1), d, 0, 0, 0, 0, time.UTC)
		day := models.ScheduleDay{
			Day:     d,
			Date:    fmt.Sprintf("%02d/%02d/%04d", d, month0+1, year),
			Weekday: Weekdays[date.Weekday()],
		}
		if n > 0 {
			var m models.Member
			if seed.Continuation != nil {
				m = ordered[mod(*seed.Continuation+d-1, n)]
			} else {
				m, _ = Assign(date, ordered, seed.Epoch)
			}
			id := m.ID
			day.MemberID = &id
			day.MemberName = m.Name
		}
		out.Days[d-1] = day
	}
	return out
}

// Continuation computes where the next month's rotation starts, given the
// previous month as persisted (overrides included) and the current ordered
// active roster.
//
// It walks back from the last day to the most recent day whose assignee is
// still on the roster; the next month starts one position after that member,
// advanced by the vacant or unknown days that followed. ok is false when no
// such day exists.
func Continuation(prev models.ScheduleMonth, ordered []models.Member) (next int, ok bool) {
	n := len(ordered)
	if n == 0 {
		return 0, false
	}
	last := len(prev.Days) - 1
	for i := last; i >= 0; i-- {
		d := prev.Days[i]
		if d.MemberID == nil {
			continue
		}
		for p, m := range ordered {
			if m.ID == *d.MemberID {
				return mod(p+1+(last-i), n), true
			}
		}
	}
	return 0, false
}
