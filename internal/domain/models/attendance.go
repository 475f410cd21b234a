// internal/domain/models/attendance.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthsInYear is the number of months in the attendance grid.
const MonthsInYear = 12

// AttendanceLedger is the yearly presence matrix.
//
// Marks only ever holds true values: clearing a presence removes the key, so
// "not yet recorded" and "absent" look the same.
type AttendanceLedger struct {
	ID        string                     `bson:"_id" json:"id"` // annual_YYYY
	Year      int                        `bson:"year" json:"year"`
	Marks     map[string]map[string]bool `bson:"marks" json:"marks"`
	Version   int64                      `bson:"version" json:"version"`
	UpdatedAt *time.Time                 `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// LedgerKey returns the ledger document id for a year.
func LedgerKey(year int) string {
	return fmt.Sprintf("annual_%d", year)
}

// SlotKey is the "<month>-<slot>" cell key used inside Marks.
func SlotKey(month0, slot int) string {
	return strconv.Itoa(month0) + "-" + strconv.Itoa(slot)
}

// ParseSlotKey is the inverse of SlotKey.
func ParseSlotKey(key string) (month0, slot int, ok bool) {
	m, s, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	month0, err1 := strconv.Atoi(m)
	slot, err2 := strconv.Atoi(s)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return month0, slot, true
}

// Present reports whether a cell is marked.
func (l AttendanceLedger) Present(memberID string, month0, slot int) bool {
	return l.Marks[memberID][SlotKey(month0, slot)]
}
