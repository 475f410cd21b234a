// Package health reports whether the API can reach MongoDB.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type Handler struct {
	DB  Pinger
	Log *zap.Logger
}

func NewHandler(db Pinger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type status struct {
	Database  string `json:"database"`
	LatencyMS int64  `json:"latency_ms"`
}

// Serve handles GET /health: 200 with the ping latency, or 503
// DB_UNAVAILABLE. The driver error is logged, not returned.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	start := time.Now()
	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health check: mongo ping failed", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unavailable")
		return
	}
	response.OK(w, status{Database: "connected", LatencyMS: time.Since(start).Milliseconds()})
}
