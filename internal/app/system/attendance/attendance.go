// Package attendance computes presence statistics over the yearly ledger.
//
// Statistics are never stored; they are derived from the ledger on demand.
package attendance

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

var (
	// ErrOutOfGrid is returned for a month or slot outside the ledger grid.
	ErrOutOfGrid = errors.New("cell outside attendance grid")
	// ErrInvalidThresholds is returned when Low > High or either is outside 0-100.
	ErrInvalidThresholds = errors.New("invalid attendance thresholds")
)

// DefaultEvents are the recurring monthly events tracked per member.
var DefaultEvents = []string{"REUNIÃO DE ATA", "VISITA AO CUMPADRE", "GIRO NOTURNO", "CAFÉ NA ESTRADA"}

// Band classifies a percentage against the configured thresholds.
type Band string

const (
	BandNominal Band = "nominal"
	BandWatch   Band = "watch"
	BandFlagged Band = "flagged"
)

// Thresholds are percentage cut-offs: >= High is nominal, >= Low is watch,
// anything below Low is flagged.
type Thresholds struct {
	High float64 `json:"high" yaml:"high"`
	Low  float64 `json:"low" yaml:"low"`
}

// DefaultThresholds match the dashboard's colour bands.
var DefaultThresholds = Thresholds{High: 75, Low: 40}

// Validate checks 0 <= Low <= High <= 100.
func (t Thresholds) Validate() error {
	if t.Low < 0 || t.High > 100 || t.Low > t.High {
		return fmt.Errorf("%w: low=%v high=%v", ErrInvalidThresholds, t.Low, t.High)
	}
	return nil
}

// Classify returns the band for pct.
func (t Thresholds) Classify(pct float64) Band {
	switch {
	case pct >= t.High:
		return BandNominal
	case pct >= t.Low:
		return BandWatch
	default:
		return BandFlagged
	}
}

// Config describes the grid: one slot per event per month.
type Config struct {
	Events     []string
	Thresholds Thresholds
}

// DefaultConfig returns the four monthly events and the default bands.
func DefaultConfig() Config {
	return Config{Events: slices.Clone(DefaultEvents), Thresholds: DefaultThresholds}
}

// SlotsPerMonth is the number of event slots in each month.
func (c Config) SlotsPerMonth() int {
	return len(c.Events)
}

// Denominator is the total number of cells per member per year.
func (c Config) Denominator() int {
	return models.MonthsInYear * len(c.Events)
}

// ValidCell reports whether (month0, slot) is inside the grid.
func (c Config) ValidCell(month0, slot int) bool {
	return models.ValidMonth(month0) && slot >= 0 && slot < len(c.Events)
}

// CheckCell is ValidCell as an error.
func (c Config) CheckCell(month0, slot int) error {
	if !c.ValidCell(month0, slot) {
		return fmt.Errorf("%w: month=%d slot=%d", ErrOutOfGrid, month0, slot)
	}
	return nil
}

// Count returns the number of in-grid cells marked present for a member.
// Malformed or out-of-grid keys are ignored.
func (c Config) Count(l models.AttendanceLedger, memberID string) int {
	n := 0
	for key, present := range l.Marks[memberID] {
		if !present {
			continue
		}
		m, s, ok := models.ParseSlotKey(key)
		if ok && c.ValidCell(m, s) {
			n++
		}
	}
	return n
}

// Percentage returns count / denominator * 100, or 0 for an empty grid.
func (c Config) Percentage(count int) float64 {
	d := c.Denominator()
	if d == 0 {
		return 0
	}
	return float64(count) / float64(d) * 100
}

// Stats is one member's derived attendance figures. Rank is 1-based.
type Stats struct {
	MemberID   string  `json:"member_id" yaml:"member_id"`
	Name       string  `json:"name" yaml:"name"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Rank       int     `json:"rank" yaml:"rank"`
	Band       Band    `json:"band" yaml:"band"`
}

// RankAll computes stats for every listed member, ordered by percentage
// descending, then folded name, then id. Ranks are positions in that order.
func (c Config) RankAll(l models.AttendanceLedger, members []models.Member) []Stats {
	out := make([]Stats, 0, len(members))
	for _, m := range members {
		count := c.Count(l, m.ID)
		pct := c.Percentage(count)
		out = append(out, Stats{
			MemberID:   m.ID,
			Name:       m.Name,
			Count:      count,
			Percentage: pct,
			Band:       c.Thresholds.Classify(pct),
		})
	}
	slices.SortFunc(out, func(a, b Stats) int {
		if r := cmp.Compare(b.Percentage, a.Percentage); r != 0 {
			return r
		}
		if r := cmp.Compare(text.Fold(a.Name), text.Fold(b.Name)); r != 0 {
			return r
		}
		return cmp.Compare(a.MemberID, b.MemberID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ComputeStats returns the stats of one member, ranked among members. ok is
// false when memberID is not listed.
func (c Config) ComputeStats(l models.AttendanceLedger, members []models.Member, memberID string) (Stats, bool) {
	for _, s := range c.RankAll(l, members) {
		if s.MemberID == memberID {
			return s, true
		}
	}
	return Stats{}, false
}

// Average is the mean percentage of ranked stats, 0 when empty.
func Average(stats []Stats) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stats {
		sum += s.Percentage
	}
	return sum / float64(len(stats))
}

// Set returns a copy of the ledger with one cell set or cleared. Clearing
// removes the key. It mirrors the store's $set/$unset write.
func Set(l models.AttendanceLedger, memberID string, month0, slot int, present bool) models.AttendanceLedger {
	out := l
	out.Marks = make(map[string]map[string]bool, len(l.Marks)+1)
	for id, cells := range l.Marks {
		cp := make(map[string]bool, len(cells))
		for k, v := range cells {
			cp[k] = v
		}
		out.Marks[id] = cp
	}
	key := models.SlotKey(month0, slot)
	if present {
		if out.Marks[memberID] == nil {
			out.Marks[memberID] = map[string]bool{}
		}
		out.Marks[memberID][key] = true
		return out
	}
	if cells, ok := out.Marks[memberID]; ok {
		delete(cells, key)
	}
	return out
}
