// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	attendancestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	fixedrosterstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/fixedroster"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/metrics"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/workers"
	"go.uber.org/zap"
)

// appState is everything built once at startup and shared by the handlers.
type appState struct {
	members     *memberstore.Store
	schedules   *schedulestore.Store
	ledgers     *attendancestore.Store
	fixedRoster *fixedrosterstore.Store
	auditStore  *audit.Store

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	service *scheduling.Service
	ledger  *scheduling.Ledger

	monthAhead *workers.MonthAhead
}

// newAppState wires stores and services over db.
func newAppState(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *appState {
	db := deps.MongoDatabase
	st := &appState{
		members:     memberstore.New(db),
		schedules:   schedulestore.New(db),
		ledgers:     attendancestore.New(db),
		fixedRoster: fixedrosterstore.New(db),
		auditStore:  audit.New(db),
		metrics:     metrics.New(),
	}
	st.audit = auditlog.New(st.auditStore, logger, auditlog.Config{
		Session: appCfg.AuditLogSession,
		Changes: appCfg.AuditLogChanges,
	})
	st.service = scheduling.New(st.members, st.schedules, scheduling.Config{
		Order:   appCfg.Order,
		Epoch:   appCfg.Epoch,
		Retries: appCfg.Retries,
	}, st.audit, st.metrics, logger)
	st.ledger = scheduling.NewLedger(st.members, st.ledgers, appCfg.Attendance,
		st.service.Sorter(), appCfg.Retries, st.audit, st.metrics, logger)
	return st
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the stores and services and starts the month-ahead worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	st := newAppState(appCfg, deps, logger)
	if deps.state != nil {
		*deps.state = *st
		st = deps.state
	}

	logger.Info("rotation configured",
		zap.Time("epoch", appCfg.Epoch),
		zap.String("numbered_direction", string(appCfg.Order.NumberedDirection)),
		zap.Strings("command_roles", appCfg.CommandRoles),
		zap.Strings("attendance_events", appCfg.Attendance.Events))

	if appCfg.AutoGen > 0 {
		st.monthAhead = workers.NewMonthAhead(st.service, logger, appCfg.AutoGen)
		st.monthAhead.Start()
	}
	return nil
}
