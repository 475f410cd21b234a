// internal/app/features/errors/errors.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	attendancestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/attendance"
	fixedrosterstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/fixedroster"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/reqval"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrorLogger turns domain errors into API responses and logs the ones the
// client cannot fix.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// Write maps err to a status code and envelope. op names the failing
// operation in the log line.
//
//	400  invalid input, day out of range, cell outside the grid
//	404  month never generated, unknown member
//	409  month already generated, duplicate name (final);
//	     version conflict after retries (retryable)
//	503  database unreachable or timed out
//	500  anything else
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fields reqval.FieldErrors
	switch {
	case stderrors.As(err, &fields):
		response.Invalid(w, fields)
	case stderrors.Is(err, reqval.ErrBadJSON):
		response.BadRequest(w, err.Error())

	case stderrors.Is(err, scheduling.ErrInvalidMonth),
		stderrors.Is(err, scheduling.ErrDayOutOfRange),
		stderrors.Is(err, scheduling.ErrOutOfGrid),
		stderrors.Is(err, fixedrosterstore.ErrRowOutOfRange):
		response.BadRequest(w, err.Error())

	case stderrors.Is(err, scheduling.ErrNotFound):
		response.NotFound(w, "schedule not generated for this month")
	case stderrors.Is(err, scheduling.ErrMemberNotFound),
		stderrors.Is(err, memberstore.ErrNotFound):
		response.NotFound(w, "member not found")

	case stderrors.Is(err, scheduling.ErrMonthExists):
		response.Conflict(w, "MONTH_EXISTS", err.Error(), false)
	case stderrors.Is(err, memberstore.ErrDuplicateName):
		response.Conflict(w, "DUPLICATE_NAME", err.Error(), false)
	case stderrors.Is(err, scheduling.ErrConflict),
		stderrors.Is(err, attendancestore.ErrVersionMismatch),
		stderrors.Is(err, schedulestore.ErrVersionMismatch):
		e.log.Warn("write conflict", zap.String("op", op), zap.String("path", r.URL.Path))
		response.Conflict(w, "VERSION_CONFLICT", err.Error(), true)

	case stderrors.Is(err, context.DeadlineExceeded),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		stderrors.Is(err, mongo.ErrClientDisconnected):
		e.log.Error("database unavailable", zap.String("op", op), zap.Error(err))
		response.Unavailable(w, "database unavailable")

	default:
		e.log.Error("request failed", zap.String("op", op), zap.String("path", r.URL.Path), zap.Error(err))
		response.InternalError(w)
	}
}
