package dutyctl

import (
	"context"
	"errors"
	"io"

	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/csvutil"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
)

// MemberCreator is the part of the member store an import needs.
type MemberCreator interface {
	Create(ctx context.Context, m models.Member) (models.Member, error)
}

// ImportResult summarizes an import. Skipped lists names already on the
// roster.
type ImportResult struct {
	Created []models.Member `json:"created"`
	Skipped []string        `json:"skipped"`
}

// ImportMembers parses a roster CSV and creates every row. The whole file is
// validated before the first insert. Existing names are skipped, not updated.
func ImportMembers(ctx context.Context, store MemberCreator, audit *auditlog.Logger, actor auditlog.Actor, r io.Reader) (ImportResult, error) {
	rows, err := csvutil.ParseMembers(r)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Created: []models.Member{}, Skipped: []string{}}
	for _, row := range rows {
		m, err := store.Create(ctx, models.Member{
			Name:     row.Name,
			FullName: row.FullName,
			CumbraID: row.CumbraID,
			Role:     row.Role,
		})
		if errors.Is(err, memberstore.ErrDuplicateName) {
			res.Skipped = append(res.Skipped, row.Name)
			continue
		}
		if err != nil {
			return res, err
		}
		audit.MemberCreated(ctx, actor, m.ID, m.Name)
		res.Created = append(res.Created, m)
	}
	return res, nil
}
