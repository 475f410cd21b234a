// internal/app/features/schedule/handler.go
package schedule

import (
	"context"
	"errors"
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

// Watcher streams a month document as it changes.
type Watcher interface {
	Watch(ctx context.Context, year, month0 int, fn func(models.ScheduleMonth) error) error
}

type Handler struct {
	Service *scheduling.Service
	Watcher Watcher
	Metrics *metrics.Metrics
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *scheduling.Service, watcher Watcher, m *metrics.Metrics, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		Watcher: watcher,
		Metrics: m,
		ErrLog:  errLog,
		Log:     logger,
	}
}

// monthParams reads {year} and the 1-based {month} from the path and returns
// the zero-based month used everywhere else.
func monthParams(r *http.Request) (year, month0 int, err error) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q/%q", scheduling.ErrInvalidMonth, chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	}
	return year, month - 1, nil
}

func dayParam(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", scheduling.ErrDayOutOfRange, chi.URLParam(r, "day"))
	}
	return day, nil
}

// ServeMonth handles GET /schedule/{year}/{month}.
func (h *Handler) ServeMonth(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.get", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Service.Get(ctx, year, month0)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.get", err)
		return
	}
	response.OK(w, m)
}

// HandleGenerate handles POST /schedule/{year}/{month}/generate. It only
// creates: an existing month is a 409.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.generate", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Service.Generate(ctx, auditlog.ActorFromRequest(r), year, month0)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.generate", err)
		return
	}
	response.Created(w, m)
}

type regenerateRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleRegenerate handles POST /schedule/{year}/{month}/regenerate. It
// discards every override of the month, so the body must carry
// {"confirm": true}.
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.regenerate", err)
		return
	}
	var req regenerateRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "schedule.regenerate", err)
		return
	}
	if !req.Confirm {
		response.Error(w, http.StatusBadRequest, "CONFIRMATION_REQUIRED",
			"regenerating discards every manual change of the month; resend with confirm=true")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Service.Regenerate(ctx, auditlog.ActorFromRequest(r), year, month0)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.regenerate", err)
		return
	}
	response.OK(w, m)
}

type assignRequest struct {
	MemberID *string `json:"member_id" validate:"omitnil,notblank"`
}

// HandleAssign handles POST /schedule/{year}/{month}/days/{day}/assign.
// {"member_id": null} (or an empty body) leaves the day vacant.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.assign", err)
		return
	}
	day, err := dayParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.assign", err)
		return
	}
	var req assignRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "schedule.assign", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Service.Reassign(ctx, auditlog.ActorFromRequest(r), year, month0, day, req.MemberID)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.assign", err)
		return
	}
	response.OK(w, m)
}

// HandleToggle handles POST /schedule/{year}/{month}/days/{day}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.toggle", err)
		return
	}
	day, err := dayParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.toggle", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Service.ToggleVacancy(ctx, auditlog.ActorFromRequest(r), year, month0, day)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.toggle", err)
		return
	}
	response.OK(w, m)
}

type swapRequest struct {
	DayA int `json:"day_a" validate:"required,min=1"`
	DayB int `json:"day_b" validate:"required,min=1"`
}

// HandleSwap handles POST /schedule/{year}/{month}/swap.
func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.swap", err)
		return
	}
	var req swapRequest
	if err := reqval.Decode(r, &req); err != nil {
		h.ErrLog.Write(w, r, "schedule.swap", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Service.Swap(ctx, auditlog.ActorFromRequest(r), year, month0, req.DayA, req.DayB)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.swap", err)
		return
	}
	response.OK(w, m)
}

// ServeEvents handles GET /schedule/{year}/{month}/events: the current month
// (when generated) followed by every stored change.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	year, month0, err := monthParams(r)
	if err != nil {
		h.ErrLog.Write(w, r, "schedule.events", err)
		return
	}

	var initial *models.ScheduleMonth
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	m, err := h.Service.Get(ctx, year, month0)
	cancel()
	switch {
	case err == nil:
		initial = &m
	case errors.Is(err, scheduling.ErrNotFound):
	default:
		h.ErrLog.Write(w, r, "schedule.events", err)
		return
	}

	done := h.Metrics.StreamOpened("schedule")
	defer done()

	livestream.Serve(w, r, initial, func(ctx context.Context, emit func(models.ScheduleMonth) error) error {
		return h.Watcher.Watch(ctx, year, month0, emit)
	}, livestream.Options{Log: h.Log, Resource: models.ScheduleKey(year, month0)})
}
