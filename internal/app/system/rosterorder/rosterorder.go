// Package rosterorder defines the total order over members that is used both
// for display and for the duty rotation.
//
// Members are compared by role seniority, then by enrollment tier (founder,
// numbered, probationary), then inside the tier: founders by code suffix,
// numbered members by code in the configured direction, probationary members
// by the pin lists and then alphabetically. Folded name and id break any
// remaining tie so the order is total.
package rosterorder

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

// Direction is the sort direction for numbered enrollment codes.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" (any case); anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Descending)) {
		return Descending
	}
	return Ascending
}

// DefaultRoles is the organizational hierarchy, most senior first.
var DefaultRoles = []string{
	"Presidente",
	"Vice-presidente",
	"Tesoureiro",
	"Prefeito",
	"Secretário",
	"Capitão de Estrada",
	"Sargento de Armas",
	"Membro",
	"Próspero",
}

// Config controls the comparator.
type Config struct {
	Roles             []string  // most senior first; empty means DefaultRoles
	NumberedDirection Direction // order of plain numeric codes
	PinFirst          []string  // probationary member ids that always sort first, in this order
	PinLast           []string  // probationary member ids that always sort last, in this order
}

// Sorter is a compiled Config. It is safe for concurrent use.
type Sorter struct {
	roleRank map[string]int
	pinFirst map[string]int
	pinLast  map[string]int
	desc     bool
}

// New compiles cfg into a Sorter.
func New(cfg Config) *Sorter {
	roles := cfg.Roles
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	s := &Sorter{
		roleRank: make(map[string]int, len(roles)),
		pinFirst: make(map[string]int, len(cfg.PinFirst)),
		pinLast:  make(map[string]int, len(cfg.PinLast)),
		desc:     cfg.NumberedDirection == Descending,
	}
	for i, r := range roles {
		key := text.Fold(r)
		if _, dup := s.roleRank[key]; !dup {
			s.roleRank[key] = i
		}
	}
	for i, id := range cfg.PinFirst {
		if _, dup := s.pinFirst[id]; !dup {
			s.pinFirst[id] = i
		}
	}
	for i, id := range cfg.PinLast {
		if _, dup := s.pinLast[id]; !dup {
			s.pinLast[id] = i
		}
	}
	return s
}

// RoleRank returns the seniority rank of a role; unknown roles rank after
// every configured role.
func (s *Sorter) RoleRank(role string) int {
	if r, ok := s.roleRank[text.Fold(role)]; ok {
		return r
	}
	return len(s.roleRank)
}

// Compare orders a before b when it returns a negative number.
func (s *Sorter) Compare(a, b models.Member) int {
	if c := cmp.Compare(s.RoleRank(a.Role), s.RoleRank(b.Role)); c != 0 {
		return c
	}
	ta, tb := a.Tier(), b.Tier()
	if c := cmp.Compare(ta, tb); c != 0 {
		return c
	}

	switch ta {
	case models.TierFounder:
		na, _ := a.CodeNumber()
		nb, _ := b.CodeNumber()
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case models.TierNumbered:
		na, _ := a.CodeNumber()
		nb, _ := b.CodeNumber()
		c := cmp.Compare(na, nb)
		if s.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	case models.TierProbationary:
		if c := s.comparePins(a.ID, b.ID); c != 0 {
			return c
		}
	}

	if c := cmp.Compare(foldedName(a), foldedName(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// comparePins places pinned-first ids before everyone, pinned-last ids after
// everyone, each group in list order.
func (s *Sorter) comparePins(a, b string) int {
	ga, ia := s.pinGroup(a)
	gb, ib := s.pinGroup(b)
	if c := cmp.Compare(ga, gb); c != 0 {
		return c
	}
	return cmp.Compare(ia, ib)
}

func (s *Sorter) pinGroup(id string) (group, index int) {
	if i, ok := s.pinFirst[id]; ok {
		return 0, i
	}
	if i, ok := s.pinLast[id]; ok {
		return 2, i
	}
	return 1, 0
}

// Sort returns a sorted copy of members.
func (s *Sorter) Sort(members []models.Member) []models.Member {
	out := slices.Clone(members)
	slices.SortFunc(out, s.Compare)
	return out
}

// Active filters the members that take part in the duty rotation, keeping
// their relative order.
func Active(members []models.Member) []models.Member {
	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.RosterActive {
			out = append(out, m)
		}
	}
	return out
}

// Position returns the index of the member with the given id, or -1.
func Position(ordered []models.Member, id string) int {
	return slices.IndexFunc(ordered, func(m models.Member) bool { return m.ID == id })
}

func foldedName(m models.Member) string {
	if m.NameCI != "" {
		return m.NameCI
	}
	return text.Fold(m.Name)
}
