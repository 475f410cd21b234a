// internal/app/features/roster/handler.go
package roster

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/htmlsanitize"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/reqval"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

// Store is the member persistence used by the roster screens.
type Store interface {
	Create(ctx context.Context, m models.Member) (models.Member, error)
	Update(ctx context.Context, id string, u memberstore.Update) (models.Member, error)
	SetActive(ctx context.Context, id string, active bool) (models.Member, error)
}

// Ordering yields every member, active ones first in rotation order.
type Ordering interface {
	FullRoster(ctx context.Context) ([]models.Member, error)
}

type Handler struct {
	Store    Store
	Ordering Ordering
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(store Store, ordering Ordering, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Ordering: ordering,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// memberView adds the derived fields to a member. RotationPosition is nil for
// members out of the rotation.
type memberView struct {
	models.Member
	Tier             string `json:"tier"`
	RotationPosition *int   `json:"rotation_position"`
}

func view(m models.Member, pos *int) memberView {
	return memberView{Member: m, Tier: m.Tier().String(), RotationPosition: pos}
}

// ServeList handles GET /roster.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all, err := h.Ordering.FullRoster(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "roster.list", err)
		return
	}

	out := make([]memberView, 0, len(all))
	next := 0
	for _, m := range all {
		if !m.RosterActive {
			out = append(out, view(m, nil))
			continue
		}
		pos := next
		next++
		out = append(out, view(m, &pos))
	}
	response.OK(w, out)
}

type createRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=60"`
	FullName string `json:"full_name" validate:"max=120"`
	CumbraID string `json:"cumbra_id" validate:"max=16"`
	Role     string `json:"role" validate:"required,notblank,max=40"`
}

// HandleCreate handles POST /roster.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "roster.create", err)
		return
	}
	name := htmlsanitize.PlainText(req.Name)
	if name == "" {
		response.Invalid(w, map[string]string{"name": "name must not be blank"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Store.Create(ctx, models.Member{
		Name:     name,
		FullName: htmlsanitize.PlainText(req.FullName),
		CumbraID: req.CumbraID,
		Role:     htmlsanitize.PlainText(req.Role),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "roster.create", err)
		return
	}

	h.AuditLog.MemberCreated(ctx, auditlog.ActorFromRequest(r), m.ID, m.Name)
	h.Log.Info("member created", zap.String("member_id", m.ID), zap.String("name", m.Name))
	response.Created(w, view(m, nil))
}

type editRequest struct {
	Name     *string `json:"name" validate:"omitnil,notblank,max=60"`
	FullName *string `json:"full_name" validate:"omitnil,max=120"`
	CumbraID *string `json:"cumbra_id" validate:"omitnil,max=16"`
	Role     *string `json:"role" validate:"omitnil,notblank,max=40"`
}

// HandleEdit handles POST /roster/{id}. Absent fields are left unchanged.
// Names already copied into generated months keep their old spelling.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req editRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "roster.edit", err)
		return
	}

	u := memberstore.Update{
		FullName: htmlsanitize.PlainTextPtr(req.FullName),
		CumbraID: req.CumbraID,
		Role:     htmlsanitize.PlainTextPtr(req.Role),
	}
	var changed []string
	if req.Name != nil {
		name := htmlsanitize.PlainText(*req.Name)
		if name == "" {
			response.Invalid(w, map[string]string{"name": "name must not be blank"})
			return
		}
		u.Name = &name
		changed = append(changed, "name")
	}
	if req.FullName != nil {
		changed = append(changed, "full_name")
	}
	if req.CumbraID != nil {
		changed = append(changed, "cumbra_id")
	}
	if req.Role != nil {
		changed = append(changed, "role")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Store.Update(ctx, id, u)
	if err != nil {
		h.ErrLog.Write(w, r, "roster.edit", err)
		return
	}
	if len(changed) > 0 {
		h.AuditLog.MemberUpdated(ctx, auditlog.ActorFromRequest(r), m.ID, changed)
	}
	response.OK(w, view(m, nil))
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// HandleSetActive handles POST /roster/{id}/active. Leaving the rotation
// affects future generations only.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	var req activeRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "roster.active", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Store.SetActive(ctx, id, *req.Active)
	if err != nil {
		h.ErrLog.Write(w, r, "roster.active", err)
		return
	}
	h.AuditLog.MemberActiveChanged(ctx, auditlog.ActorFromRequest(r), m.ID, m.RosterActive)
	response.OK(w, view(m, nil))
}
