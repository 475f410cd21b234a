// internal/domain/models/schedule.go
package models

import (
	"fmt"
	"time"
)

// ScheduleDay is one calendar day of a ScheduleMonth.
//
// MemberName is a snapshot taken when the day was assigned. It is not a live
// join: renaming a member leaves already-generated months untouched until
// they are explicitly regenerated.
type ScheduleDay struct {
	Day        int     `bson:"day" json:"day"`         // 1-based day of month
	Date       string  `bson:"date" json:"date"`       // DD/MM/YYYY
	Weekday    string  `bson:"weekday" json:"weekday"` // DOMINGO..SÁBADO
	MemberID   *string `bson:"member_id" json:"member_id"`
	MemberName string  `bson:"member_name" json:"member_name"`
}

// Vacant reports whether the day has no duty-bearer.
func (d ScheduleDay) Vacant() bool {
	return d.MemberID == nil
}

// SeedKind records how the rotation of a month was anchored.
const (
	SeedContinuation = "continuation"
	SeedEpoch        = "epoch"
)

// ScheduleSeed is stored with the month so a reader can tell where day 1
// came from.
type ScheduleSeed struct {
	Kind         string    `bson:"kind" json:"kind"`
	Continuation *int      `bson:"continuation,omitempty" json:"continuation,omitempty"`
	Epoch        time.Time `bson:"epoch,omitempty" json:"epoch,omitempty"`
}

// ScheduleMonth is the persisted, day-by-day duty assignment for one month.
type ScheduleMonth struct {
	ID          string        `bson:"_id" json:"id"` // YYYY-MM
	Year        int           `bson:"year" json:"year"`
	Month       int           `bson:"month" json:"month"` // zero-based
	Days        []ScheduleDay `bson:"days" json:"days"`
	Seed        ScheduleSeed  `bson:"seed" json:"seed"`
	RosterSize  int           `bson:"roster_size" json:"roster_size"`
	Version     int64         `bson:"version" json:"version"`
	GeneratedAt time.Time     `bson:"generated_at" json:"generated_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// ScheduleKey returns the document id for (year, zero-based month).
func ScheduleKey(year, month0 int) string {
	return fmt.Sprintf("%04d-%02d", year, month0+1)
}

// PrevMonth returns the (year, zero-based month) before the given one.
func PrevMonth(year, month0 int) (int, int) {
	if month0 == 0 {
		return year - 1, 11
	}
	return year, month0 - 1
}

// ValidMonth reports whether month0 is a zero-based month index.
func ValidMonth(month0 int) bool {
	return month0 >= 0 && month0 <= 11
}
