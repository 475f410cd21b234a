// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"go.uber.org/zap"
)

// Querier reads audit events. Implemented by audit.Store.
type Querier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type Handler struct {
	Store  Querier
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler.
func NewHandler(store Querier, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: errLog,
	}
}
