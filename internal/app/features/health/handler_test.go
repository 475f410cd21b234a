package health_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/health"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context, rp *readpref.ReadPref) error { return f.err }

func TestServe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"connected", nil, http.StatusOK, `"database":"connected"`},
		{"unreachable", errors.New("server selection timeout"), http.StatusServiceUnavailable, "DB_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(fakePinger{err: tt.err}, zap.NewNop())
			rec := testutil.NewRecorder()
			health.Routes(h).ServeHTTP(rec, testutil.NewRequest("GET", "/"))

			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
			if tt.err != nil {
				// driver errors stay in the log
				if got := rec.Body.String(); strings.Contains(got, "server selection") {
					t.Errorf("error leaked into body: %s", got)
				}
			}
		})
	}
}

func TestServe_RealDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec, testutil.NewRequest("GET", "/health"))
	rec.AssertStatus(t, http.StatusOK)

	var data struct {
		Database string `json:"database"`
	}
	env := rec.Decode(t, &data)
	if !env.Success || data.Database != "connected" {
		t.Errorf("got %+v / %+v", env, data)
	}
}
