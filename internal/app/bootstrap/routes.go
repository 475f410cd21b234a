// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	attendancefeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/attendance"
	auditlogfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/auditlog"
	errorsfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	fixedrosterfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/fixedroster"
	healthfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/health"
	rosterfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/roster"
	schedulefeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/schedule"
	sessionfeature "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/session"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auth"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Reads are open; every mutation sits behind the
// command-role gate.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	st := deps.state
	if st == nil || st.service == nil {
		st = newAppState(appCfg, deps, logger)
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	command := sessionMgr.RequireRole(appCfg.CommandRoles...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads the signed-in member into context.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", st.metrics.Handler())

	sessionHandler := sessionfeature.NewHandler(st.members, sessionMgr, appCfg.PasscodeHash, appCfg.CommandRoles, st.audit, errLog, logger)
	sessionHandler.Limiter = ratelimit.NewSignInLimiter()
	r.Mount("/session", sessionfeature.Routes(sessionHandler))

	rosterHandler := rosterfeature.NewHandler(st.members, st.service, st.audit, errLog, logger)
	r.Mount("/roster", rosterfeature.Routes(rosterHandler, command))

	scheduleHandler := schedulefeature.NewHandler(st.service, st.schedules, st.metrics, errLog, logger)
	r.Mount("/schedule", schedulefeature.Routes(scheduleHandler, command))

	fixedHandler := fixedrosterfeature.NewHandler(st.fixedRoster, st.members, st.audit, errLog, logger)
	r.Mount("/fixed-roster", fixedrosterfeature.Routes(fixedHandler, command))

	attendanceHandler := attendancefeature.NewHandler(st.ledger, st.ledgers, st.metrics, errLog, logger)
	r.Mount("/attendance", attendancefeature.Routes(attendanceHandler, command))

	auditHandler := auditlogfeature.NewHandler(st.auditStore, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, command))

	return r, nil
}
