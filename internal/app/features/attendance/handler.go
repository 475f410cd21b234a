// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/livestream"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/metrics"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/reqval"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

// Watcher streams the ledger of a year as it changes.
type Watcher interface {
	Watch(ctx context.Context, year int, fn func(models.AttendanceLedger) error) error
}

type Handler struct {
	Ledger  *scheduling.Ledger
	Watcher Watcher
	Metrics *metrics.Metrics
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(ledger *scheduling.Ledger, watcher Watcher, m *metrics.Metrics, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:  ledger,
		Watcher: watcher,
		Metrics: m,
		ErrLog:  errLog,
		Log:     logger,
	}
}

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", scheduling.ErrInvalidMonth, chi.URLParam(r, "year"))
	}
	return year, nil
}

// ServeDashboard handles GET /attendance/{year}: grid rows in roster order,
// the ledger, the ranking and the club average.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.dashboard", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Ledger.Dashboard(ctx, year)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.dashboard", err)
		return
	}
	response.OK(w, d)
}

// ServeMember handles GET /attendance/{year}/members/{id}.
func (h *Handler) ServeMember(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.member", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Ledger.MemberStats(ctx, year, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.member", err)
		return
	}
	response.OK(w, st)
}

// cell addresses one grid cell. Month is 1-12 on the wire.
type cell struct {
	MemberID string `json:"member_id" validate:"required,notblank"`
	Month    int    `json:"month" validate:"required,min=1,max=12"`
	Slot     *int   `json:"slot" validate:"required,min=0"`
}

type presenceRequest struct {
	cell
	Present *bool `json:"present" validate:"required"`
}

// HandleSetPresence handles POST /attendance/{year}/presence. Setting the
// same value twice is a no-op.
func (h *Handler) HandleSetPresence(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.set", err)
		return
	}
	var req presenceRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "attendance.set", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	led, err := h.Ledger.SetPresence(ctx, auditlog.ActorFromRequest(r), year, req.MemberID, req.Month-1, *req.Slot, *req.Present)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.set", err)
		return
	}
	response.OK(w, led)
}

type toggleResult struct {
	Present bool                    `json:"present"`
	Ledger  models.AttendanceLedger `json:"ledger"`
}

// HandleToggle handles POST /attendance/{year}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.toggle", err)
		return
	}
	var req cell
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "attendance.toggle", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	present, led, err := h.Ledger.TogglePresence(ctx, auditlog.ActorFromRequest(r), year, req.MemberID, req.Month-1, *req.Slot)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.toggle", err)
		return
	}
	response.OK(w, toggleResult{Present: present, Ledger: led})
}

// ServeEvents handles GET /attendance/{year}/events.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.events", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	initial, err := h.Ledger.Get(ctx, year)
	cancel()
	if err != nil {
		h.ErrLog.Write(w, r, "attendance.events", err)
		return
	}

	done := h.Metrics.StreamOpened("attendance")
	defer done()

	livestream.Serve(w, r, &initial, func(ctx context.Context, emit func(models.AttendanceLedger) error) error {
		return h.Watcher.Watch(ctx, year, emit)
	}, livestream.Options{Log: h.Log, Resource: models.LedgerKey(year)})
}
