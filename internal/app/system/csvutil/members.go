// internal/app/system/csvutil/members.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/htmlsanitize"
)

// MemberRow is one normalized roster row: name, cumbra_id, role, full_name.
// Only name and role are required.
type MemberRow struct {
	Line     int    `json:"line"`
	Name     string `json:"name"`
	CumbraID string `json:"cumbra_id"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

// RowError describes one rejected line.
type RowError struct {
	Line   int
	Name   string
	Reason string
}

// RowErrors is returned when any row is invalid. Nothing should be written
// when it is returned.
type RowErrors []RowError

// maxReported caps the lines listed in Error.
const maxReported = 5

func (re RowErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d invalid row(s); each row needs a name and a role", len(re))
	for i, e := range re {
		if i == maxReported {
			fmt.Fprintf(&b, "; and %d more", len(re)-maxReported)
			break
		}
		name := e.Name
		if name == "" {
			name = "(missing)"
		}
		fmt.Fprintf(&b, "; line %d %q: %s", e.Line, name, e.Reason)
	}
	return b.String()
}

// ErrTooManyRows is returned when the file has more than MaxRows data rows.
var ErrTooManyRows = fmt.Errorf("more than %d rows", MaxRows)

// ParseMembers reads a roster CSV. A first line starting with "name" is taken
// as a header. Blank lines are skipped. Names are checked for duplicates
// after folding, the same way the member store compares them.
func ParseMembers(r io.Reader) ([]MemberRow, error) {
	reader := csv.NewReader(io.LimitReader(r, MaxFileSize))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows  []MemberRow
		errs  RowErrors
		seen  = map[string]int{}
		first = true
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		if first {
			first = false
			rec[0] = strings.TrimPrefix(rec[0], bom)
			if strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
				continue
			}
		}

		row := normalize(line, rec)
		if row.Name == "" && row.CumbraID == "" && row.Role == "" && row.FullName == "" {
			continue
		}
		if len(rows) == MaxRows {
			return nil, ErrTooManyRows
		}

		switch {
		case row.Name == "":
			errs = append(errs, RowError{Line: line, Reason: "missing name"})
		case row.Role == "":
			errs = append(errs, RowError{Line: line, Name: row.Name, Reason: "missing role"})
		default:
			key := text.Fold(row.Name)
			if first, dup := seen[key]; dup {
				errs = append(errs, RowError{Line: line, Name: row.Name, Reason: fmt.Sprintf("duplicate of line %d", first)})
			} else {
				seen[key] = line
			}
		}
		rows = append(rows, row)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rows, nil
}

const bom = "\ufeff"

func normalize(line int, rec []string) MemberRow {
	field := func(i int) string {
		if i >= len(rec) {
			return ""
		}
		return htmlsanitize.PlainText(strings.TrimSpace(rec[i]))
	}
	return MemberRow{
		Line:     line,
		Name:     field(0),
		CumbraID: field(1),
		Role:     field(2),
		FullName: field(3),
	}
}
