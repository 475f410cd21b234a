// internal/app/features/session/handler.go
package session

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auth"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/authutil"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/ratelimit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/reqval"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

// MemberLookup resolves the member signing in.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (models.Member, error)
}

// Handler signs command members in and out. The passcode is shared by the
// command; the member id decides who is acting and with which role.
type Handler struct {
	Members      MemberLookup
	SessionMgr   *auth.SessionManager
	PasscodeHash string
	CommandRoles []string

	// Limiter throttles attempts; nil disables throttling.
	Limiter  *ratelimit.SignInLimiter
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(members MemberLookup, sessionMgr *auth.SessionManager, passcodeHash string, commandRoles []string, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Members:      members,
		SessionMgr:   sessionMgr,
		PasscodeHash: passcodeHash,
		CommandRoles: commandRoles,
		AuditLog:     audit,
		ErrLog:       errLog,
		Log:          logger,
	}
}

type signInRequest struct {
	MemberID string `json:"member_id" validate:"required,notblank"`
	Passcode string `json:"passcode" validate:"required"`
}

type sessionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// HandleSignIn handles POST /session.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "session.sign_in", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actor := auditlog.ActorFromRequest(r)
	actor.ID = req.MemberID

	if ok, reason := h.Limiter.Check(r, req.MemberID); !ok {
		h.AuditLog.SignInFailed(ctx, actor, audit.EventSignInRateLimited, reason)
		response.Error(w, http.StatusTooManyRequests, "RATE_LIMITED", reason)
		return
	}

	m, err := h.Members.GetByID(ctx, req.MemberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		h.AuditLog.SignInFailed(ctx, actor, audit.EventSignInWrongPasscode, "unknown member")
		response.Unauthorized(w, "invalid member or passcode")
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, "session.sign_in", err)
		return
	}
	actor.Name = m.Name

	ok, err := authutil.CheckPasscode(h.PasscodeHash, req.Passcode)
	if errors.Is(err, authutil.ErrNoPasscode) {
		h.Log.Error("sign-in attempted but no passcode hash is configured")
		response.Error(w, http.StatusServiceUnavailable, "SIGN_IN_DISABLED", "command sign-in is not configured")
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, "session.sign_in", err)
		return
	}
	if !ok {
		h.AuditLog.SignInFailed(ctx, actor, audit.EventSignInWrongPasscode, "wrong passcode")
		response.Unauthorized(w, "invalid member or passcode")
		return
	}

	if !auth.HasRole(m.Role, h.CommandRoles) {
		h.AuditLog.SignInFailed(ctx, actor, audit.EventSignInNotCommand, "role "+m.Role)
		response.Forbidden(w, "command role required")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{ID: m.ID, Name: m.Name, Role: m.Role}); err != nil {
		h.Log.Error("save session", zap.Error(err))
		response.InternalError(w)
		return
	}
	h.Limiter.ResetMember(m.ID)
	h.AuditLog.SignIn(ctx, actor, m.Role)

	response.OK(w, sessionView{ID: m.ID, Name: m.Name, Role: m.Role})
}

// HandleSignOut handles DELETE /session.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	actor := auditlog.ActorFromRequest(r)
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// Still report success: the client drops the cookie either way.
		h.Log.Warn("sign out: save session", zap.Error(err))
	}
	if actor.ID != "" {
		h.AuditLog.SignOut(r.Context(), actor)
	}
	response.OK(w, nil)
}

// ServeCurrent handles GET /session.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}
	response.OK(w, sessionView{ID: u.ID, Name: u.Name, Role: u.Role})
}
