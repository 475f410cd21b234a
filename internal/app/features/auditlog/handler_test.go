package auditlog_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/auditlog"
	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
	"go.uber.org/zap"
)

type page struct {
	Items []struct {
		EventType string `json:"event_type"`
		Subject   string `json:"subject"`
		ActorName string `json:"actor_name"`
	} `json:"items"`
	Page struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
		HasNext    bool  `json:"has_next"`
	} `json:"page"`
}

func seed(t *testing.T) (*auditlog.Handler, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2030, time.April, 10, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Timestamp: base, Category: audit.CategorySchedule, EventType: audit.EventScheduleGenerated, Subject: "2030-04", ActorName: "Abutre", Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategorySchedule, EventType: audit.EventScheduleOverride, Subject: "2030-04", ActorName: "Abutre", Success: true},
		{Timestamp: base.Add(24 * time.Hour), Category: audit.CategorySchedule, EventType: audit.EventScheduleRegenerated, Subject: "2030-04", ActorName: "Bigode", Success: true},
		{Timestamp: base.Add(48 * time.Hour), Category: audit.CategoryAttendance, EventType: audit.EventPresenceSet, Subject: "annual_2030", Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	logger := zap.NewNop()
	return auditlog.NewHandler(store, uierrors.NewErrorLogger(logger), logger), store
}

func TestServeList_Filters(t *testing.T) {
	h, _ := seed(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all newest first", "/audit", []string{
			audit.EventPresenceSet, audit.EventScheduleRegenerated, audit.EventScheduleOverride, audit.EventScheduleGenerated,
		}},
		{"by category", "/audit?category=schedule", []string{
			audit.EventScheduleRegenerated, audit.EventScheduleOverride, audit.EventScheduleGenerated,
		}},
		{"destructive only", "/audit?category=schedule&event_type=schedule_regenerated", []string{
			audit.EventScheduleRegenerated,
		}},
		{"by subject", "/audit?subject=annual_2030", []string{audit.EventPresenceSet}},
		{"by date range", "/audit?start_date=2030-04-10&end_date=2030-04-10", []string{
			audit.EventScheduleOverride, audit.EventScheduleGenerated,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewRequest("GET", tt.target))
			rec.AssertStatus(t, http.StatusOK)

			var got page
			rec.Decode(t, &got)
			if len(got.Items) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got.Items), len(tt.want))
			}
			for i, et := range tt.want {
				if got.Items[i].EventType != et {
					t.Errorf("item %d: got %s, want %s", i, got.Items[i].EventType, et)
				}
			}
			if got.Page.Total != int64(len(tt.want)) {
				t.Errorf("total: got %d", got.Page.Total)
			}
		})
	}
}

func TestServeList_Paging(t *testing.T) {
	h, _ := seed(t)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest("GET", "/audit?limit=3"))
	var got page
	rec.Decode(t, &got)
	if len(got.Items) != 3 || got.Page.TotalPages != 2 || !got.Page.HasNext {
		t.Errorf("first page: got %d items, %+v", len(got.Items), got.Page)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest("GET", "/audit?limit=3&page=2"))
	rec.Decode(t, &got)
	if len(got.Items) != 1 || got.Items[0].EventType != audit.EventScheduleGenerated {
		t.Errorf("second page: got %+v", got.Items)
	}
}

func TestServeList_BadFilters(t *testing.T) {
	h, _ := seed(t)

	for _, target := range []string{
		"/audit?category=payments",
		"/audit?category=session&event_type=schedule_override",
		"/audit?event_type=nope",
		"/audit?start_date=10/04/2030",
	} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewRequest("GET", target))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

type failingStore struct{}

func (failingStore) Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	return nil, context.DeadlineExceeded
}

func (failingStore) CountByFilter(ctx context.Context, f audit.QueryFilter) (int64, error) {
	return 0, nil
}

func TestServeList_StoreTimeout(t *testing.T) {
	logger := zap.NewNop()
	h := auditlog.NewHandler(failingStore{}, uierrors.NewErrorLogger(logger), logger)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest("GET", "/audit"))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
}
