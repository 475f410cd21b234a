// internal/domain/models/fixedroster.go
package models

import "time"

// FixedRosterID is the single global fixed-roster document.
const FixedRosterID = "fixed"

// FixedPeriod is one row of the fixed maintenance roster: a range of days of
// the month with one primary assignee and a pair of auxiliaries.
type FixedPeriod struct {
	Period    string        `bson:"period" json:"period"` // e.g. "1-7", "22-FIM"
	StartDay  int           `bson:"start_day" json:"start_day"`
	EndDay    int           `bson:"end_day" json:"end_day"` // 0 = end of month
	Primary   *MemberRef    `bson:"primary" json:"primary"`
	Auxiliary [2]*MemberRef `bson:"auxiliary" json:"auxiliary"`
}

// FixedRoster is edited directly by the command and is never generated.
type FixedRoster struct {
	ID        string        `bson:"_id" json:"id"`
	Rows      []FixedPeriod `bson:"rows" json:"rows"`
	UpdatedAt *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DefaultFixedRoster returns the four canonical periods with nobody assigned.
func DefaultFixedRoster() FixedRoster {
	return FixedRoster{
		ID: FixedRosterID,
		Rows: []FixedPeriod{
			{Period: "1-7", StartDay: 1, EndDay: 7},
			{Period: "8-14", StartDay: 8, EndDay: 14},
			{Period: "15-21", StartDay: 15, EndDay: 21},
			{Period: "22-FIM", StartDay: 22, EndDay: 0},
		},
	}
}
