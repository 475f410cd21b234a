// internal/domain/models/member.go
package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tier is the enrollment tier of a member. It is derived from CumbraID and
// never stored, so the code and the tier cannot drift apart.
type Tier int

const (
	TierFounder Tier = iota
	TierNumbered
	TierProbationary
)

func (t Tier) String() string {
	switch t {
	case TierFounder:
		return "founder"
	case TierNumbered:
		return "numbered"
	default:
		return "probationary"
	}
}

// Member is a club member. Members are never hard-deleted; RosterActive=false
// takes them out of the duty rotation while keeping them in member lists.
type Member struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	NameCI       string    `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	FullName     string    `bson:"full_name,omitempty" json:"full_name,omitempty"`
	CumbraID     string    `bson:"cumbra_id" json:"cumbra_id"` // F4-01 | 10 | -
	Role         string    `bson:"role" json:"role"`
	RosterActive bool      `bson:"roster_active" json:"roster_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	founderCode  = regexp.MustCompile(`^(?i)F4[\s-]*(\d+)$`)
	numberedCode = regexp.MustCompile(`^\d+$`)
)

// Tier resolves the member's enrollment tier from the code.
// Anything that is neither a founder code nor a plain number is probationary.
func (m Member) Tier() Tier {
	code := strings.TrimSpace(m.CumbraID)
	switch {
	case founderCode.MatchString(code):
		return TierFounder
	case numberedCode.MatchString(code):
		return TierNumbered
	default:
		return TierProbationary
	}
}

// CodeNumber returns the numeric part of the enrollment code: the suffix of a
// founder code or the whole numbered code. ok is false for probationary members.
func (m Member) CodeNumber() (n int, ok bool) {
	code := strings.TrimSpace(m.CumbraID)
	if sub := founderCode.FindStringSubmatch(code); sub != nil {
		code = sub[1]
	} else if !numberedCode.MatchString(code) {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MemberRef is a denormalized pointer to a member: the id plus the display
// name as it was when the reference was written.
type MemberRef struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// Ref builds a MemberRef snapshot of m.
func (m Member) Ref() MemberRef {
	return MemberRef{ID: m.ID, Name: m.Name}
}
