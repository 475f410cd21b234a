// internal/app/features/fixedroster/handler.go
package fixedroster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	fixedrosterstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/fixedroster"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/reqval"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

type Store interface {
	Get(ctx context.Context) (models.FixedRoster, error)
	SetRow(ctx context.Context, row int, primary *models.MemberRef, aux [2]*models.MemberRef) (models.FixedRoster, error)
}

type Members interface {
	GetByID(ctx context.Context, id string) (models.Member, error)
}

type Handler struct {
	Store    Store
	Members  Members
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(store Store, members Members, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Members:  members,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// ServeRoster handles GET /fixed-roster.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fr, err := h.Store.Get(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "fixedroster.get", err)
		return
	}
	response.OK(w, fr)
}

type rowRequest struct {
	Primary   *string    `json:"primary" validate:"omitnil,notblank"`
	Auxiliary [2]*string `json:"auxiliary"`
}

// HandleSetRow handles POST /fixed-roster/{row}. Rows are 0-3; a null
// member id leaves that seat empty.
func (h *Handler) HandleSetRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		h.ErrLog.Write(w, r, "fixedroster.set", fmt.Errorf("%w: %q", fixedrosterstore.ErrRowOutOfRange, chi.URLParam(r, "row")))
		return
	}
	var req rowRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "fixedroster.set", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	primary, err := h.resolve(ctx, req.Primary)
	if err != nil {
		h.ErrLog.Write(w, r, "fixedroster.set", err)
		return
	}
	var aux [2]*models.MemberRef
	for i, id := range req.Auxiliary {
		if aux[i], err = h.resolve(ctx, id); err != nil {
			h.ErrLog.Write(w, r, "fixedroster.set", err)
			return
		}
	}

	fr, err := h.Store.SetRow(ctx, row, primary, aux)
	if err != nil {
		h.ErrLog.Write(w, r, "fixedroster.set", err)
		return
	}
	h.AuditLog.FixedRosterEdited(ctx, auditlog.ActorFromRequest(r), fr.Rows[row].Period)
	response.OK(w, fr)
}

// resolve turns a member id into the reference stored on the roster.
func (h *Handler) resolve(ctx context.Context, id *string) (*models.MemberRef, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	m, err := h.Members.GetByID(ctx, *id)
	if errors.Is(err, memberstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", scheduling.ErrMemberNotFound, *id)
	}
	if err != nil {
		return nil, err
	}
	ref := m.Ref()
	return &ref, nil
}
