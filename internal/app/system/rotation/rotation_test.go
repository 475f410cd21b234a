package rotation_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/rotation"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func roster(names ...string) []models.Member {
	out := make([]models.Member, len(names))
	for i, n := range names {
		out[i] = models.Member{ID: n, Name: n, RosterActive: true}
	}
	return out
}

func TestAssign_EpochExample(t *testing.T) {
	epoch := date(2026, time.January, 1)
	abc := roster("A", "B", "C")

	tests := []struct {
		day  time.Time
		want string
	}{
		{date(2026, time.January, 1), "A"},
		{date(2026, time.January, 2), "B"},
		{date(2026, time.January, 4), "A"},
		{date(2025, time.December, 31), "C"},
		{date(2025, time.December, 29), "A"},
	}
	for _, tt := range tests {
		got, ok := rotation.Assign(tt.day, abc, epoch)
		if !ok {
			t.Fatalf("Assign(%s): expected an assignment", tt.day.Format("2006-01-02"))
		}
		if got.ID != tt.want {
			t.Errorf("Assign(%s) = %s, want %s", tt.day.Format("2006-01-02"), got.ID, tt.want)
		}
	}
}

func TestAssign_EmptyRosterIsVacant(t *testing.T) {
	if _, ok := rotation.Assign(date(2026, time.March, 3), nil, date(2026, time.January, 1)); ok {
		t.Error("expected vacant result for empty roster")
	}
}

func TestAssign_IgnoresClockTime(t *testing.T) {
	epoch := time.Date(2026, time.January, 1, 23, 59, 0, 0, time.UTC)
	got, _ := rotation.Assign(time.Date(2026, time.January, 2, 0, 1, 0, 0, time.UTC), roster("A", "B"), epoch)
	if got.ID != "B" {
		t.Errorf("got %s, want B", got.ID)
	}
}

func TestAssign_AdvancesOnePositionPerDay(t *testing.T) {
	epoch := date(2026, time.January, 1)
	r := roster("A", "B", "C", "D", "E")
	n := len(r)
	pos := func(id string) int {
		for i, m := range r {
			if m.ID == id {
				return i
			}
		}
		return -1
	}

	for _, d1 := range []time.Time{
		date(2025, time.November, 17),
		date(2400, time.January, 1),
		date(1970, time.January, 1),
		date(9999, time.December, 1),
	} {
		for offset := 0; offset < 400; offset += 7 {
			d2 := d1.AddDate(0, 0, offset)
			a1, _ := rotation.Assign(d1, r, epoch)
			a2, _ := rotation.Assign(d2, r, epoch)
			got := ((pos(a2.ID)-pos(a1.ID))%n + n) % n
			want := rotation.DaysBetween(d1, d2) % n
			if got != want {
				t.Errorf("%s offset %d: position delta %d, want %d", d1.Format("2006-01-02"), offset, got, want)
			}
		}
	}
}

func TestAssign_FarFromEpoch(t *testing.T) {
	epoch := date(2026, time.January, 1)
	abc := roster("A", "B", "C")

	for _, d := range []time.Time{date(2400, time.January, 1), date(1970, time.March, 1), date(9999, time.December, 30)} {
		a1, _ := rotation.Assign(d, abc, epoch)
		a2, _ := rotation.Assign(d.AddDate(0, 0, 1), abc, epoch)
		if a1.ID == a2.ID {
			t.Errorf("%s: consecutive days both assigned %s", d.Format("2006-01-02"), a1.ID)
		}
	}

	if got := rotation.DaysBetween(epoch, date(2400, time.January, 2)) - rotation.DaysBetween(epoch, date(2400, time.January, 1)); got != 1 {
		t.Errorf("DaysBetween difference across a day in 2400: got %d, want 1", got)
	}

	m := rotation.Generate(2400, 0, abc, rotation.Seed{Epoch: epoch})
	for i := 1; i < len(m.Days); i++ {
		if *m.Days[i].MemberID == *m.Days[i-1].MemberID {
			t.Errorf("Generate(2400-01): day %d repeats %s", i+1, *m.Days[i].MemberID)
		}
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year, month0, want int
	}{
		{2026, 0, 31},
		{2026, 1, 28},
		{2024, 1, 29},
		{2000, 1, 29},
		{1900, 1, 28},
		{2026, 3, 30},
		{2026, 11, 31},
	}
	for _, tt := range tests {
		if got := rotation.DaysIn(tt.year, tt.month0); got != tt.want {
			t.Errorf("DaysIn(%d, %d) = %d, want %d", tt.year, tt.month0, got, tt.want)
		}
	}
}

func TestGenerate_Layout(t *testing.T) {
	m := rotation.Generate(2026, 1, roster("A", "B", "C"), rotation.Seed{Epoch: date(2026, time.January, 1)})

	if m.ID != "2026-02" {
		t.Errorf("ID: got %q, want %q", m.ID, "2026-02")
	}
	if len(m.Days) != 28 {
		t.Fatalf("expected 28 days, got %d", len(m.Days))
	}
	first := m.Days[0]
	if first.Date != "01/02/2026" {
		t.Errorf("Date: got %q", first.Date)
	}
	// 2026-02-01 is a Sunday.
	if first.Weekday != "DOMINGO" {
		t.Errorf("Weekday: got %q, want DOMINGO", first.Weekday)
	}
	// 31 days after the epoch: 31 mod 3 = 1.
	if first.MemberID == nil || *first.MemberID != "B" {
		t.Errorf("day 1 member: got %v, want B", first.MemberID)
	}
	if m.Seed.Kind != models.SeedEpoch {
		t.Errorf("Seed.Kind: got %q", m.Seed.Kind)
	}
	if m.RosterSize != 3 {
		t.Errorf("RosterSize: got %d", m.RosterSize)
	}
}

func TestGenerate_ContinuationStartsAtIndex(t *testing.T) {
	r := roster("A", "B", "C", "D", "E")
	c := 3
	m := rotation.Generate(2026, 2, r, rotation.Seed{Continuation: &c})

	want := []string{"D", "E", "A", "B"}
	for i, w := range want {
		if got := *m.Days[i].MemberID; got != w {
			t.Errorf("day %d: got %s, want %s", i+1, got, w)
		}
	}
	if m.Seed.Kind != models.SeedContinuation || m.Seed.Continuation == nil || *m.Seed.Continuation != 3 {
		t.Errorf("Seed: got %+v", m.Seed)
	}
}

func TestGenerate_EmptyRosterAllVacant(t *testing.T) {
	m := rotation.Generate(2026, 3, nil, rotation.Seed{Epoch: date(2026, time.January, 1)})
	if len(m.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(m.Days))
	}
	for _, d := range m.Days {
		if !d.Vacant() {
			t.Fatalf("day %d: expected vacancy", d.Day)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	r := roster("A", "B", "C", "D")
	seed := rotation.Seed{Epoch: date(2026, time.January, 1)}
	a := rotation.Generate(2026, 6, r, seed)
	b := rotation.Generate(2026, 6, r, seed)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical output for identical input")
	}
}

func TestContinuation(t *testing.T) {
	r := roster("A", "B", "C", "D", "E")
	c := 0
	prev := rotation.Generate(2026, 0, r, rotation.Seed{Continuation: &c})
	// 31 days from index 0: day 31 is index 30 mod 5 = 0 ("A").
	next, ok := rotation.Continuation(prev, r)
	if !ok || next != 1 {
		t.Errorf("got (%d, %v), want (1, true)", next, ok)
	}
}

func TestContinuation_LastDayAtIndexTwo(t *testing.T) {
	r := roster("A", "B", "C", "D", "E")
	c := 3
	prev := rotation.Generate(2026, 1, r, rotation.Seed{Continuation: &c})
	// 28 days from index 3: day 28 is (3+27) mod 5 = 0; force index 2 ("C").
	id := "C"
	prev.Days[27].MemberID = &id

	next, ok := rotation.Continuation(prev, r)
	if !ok || next != 3 {
		t.Errorf("got (%d, %v), want (3, true)", next, ok)
	}
	m := rotation.Generate(2026, 2, r, rotation.Seed{Continuation: &next})
	if *m.Days[0].MemberID != "D" {
		t.Errorf("day 1 of next month: got %s, want D", *m.Days[0].MemberID)
	}
}

func TestContinuation_SkipsTrailingVacanciesAndLeavers(t *testing.T) {
	r := roster("A", "B", "C")
	prev := models.ScheduleMonth{Days: make([]models.ScheduleDay, 5)}
	b, gone := "B", "GONE"
	prev.Days[2].MemberID = &b
	prev.Days[3].MemberID = &gone
	// day 5 vacant, day 4 held by someone no longer on the roster.

	next, ok := rotation.Continuation(prev, r)
	// B at position 1, two days after it: 1 + 1 + 2 = 4 mod 3 = 1.
	if !ok || next != 1 {
		t.Errorf("got (%d, %v), want (1, true)", next, ok)
	}
}

func TestContinuation_NoAssignedDays(t *testing.T) {
	prev := models.ScheduleMonth{Days: make([]models.ScheduleDay, 30)}
	if _, ok := rotation.Continuation(prev, roster("A")); ok {
		t.Error("expected no continuation")
	}
	if _, ok := rotation.Continuation(prev, nil); ok {
		t.Error("expected no continuation for empty roster")
	}
}
