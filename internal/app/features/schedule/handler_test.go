package schedule_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/schedule"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auth"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/indexes"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*schedule.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	logger := zap.NewNop()
	schedules := schedulestore.New(db)
	svc := scheduling.New(memberstore.New(db), schedules, scheduling.Config{}, nil, nil, logger)
	return schedule.NewHandler(svc, schedules, nil, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

// monthRequest fills the chi params the router would.
func monthRequest(r *http.Request, year, month, day string) *http.Request {
	r = testutil.WithChiURLParam(r, "year", year)
	r = testutil.WithChiURLParam(r, "month", month)
	if day != "" {
		r = testutil.WithChiURLParam(r, "day", day)
	}
	return r
}

func generate(t *testing.T, h *schedule.Handler) models.ScheduleMonth {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleGenerate(rec, monthRequest(testutil.NewRequest("POST", "/schedule/2030/4/generate"), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusCreated)
	var m models.ScheduleMonth
	rec.Decode(t, &m)
	return m
}

func seedMembers(t *testing.T, fx *testutil.Fixtures) []models.Member {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	return []models.Member{
		fx.CreateMember(ctx, "Abutre", "F4-01", "Membro"),
		fx.CreateMember(ctx, "Bigode", "7", "Membro"),
		fx.CreateMember(ctx, "Calango", "-", "Membro"),
	}
}

func TestHandleGenerate(t *testing.T) {
	h, fx := newTestHandler(t)
	seedMembers(t, fx)

	m := generate(t, h)
	if m.ID != "2030-04" || m.Month != 3 {
		t.Errorf("key: got %s month %d, want 2030-04 month 3", m.ID, m.Month)
	}
	if len(m.Days) != 30 {
		t.Fatalf("April has 30 days, got %d", len(m.Days))
	}
	for _, d := range m.Days {
		if d.Vacant() {
			t.Errorf("day %d vacant with a non-empty roster", d.Day)
		}
	}
	if m.Version != 1 || m.RosterSize != 3 {
		t.Errorf("version %d size %d", m.Version, m.RosterSize)
	}

	rec := testutil.NewRecorder()
	h.HandleGenerate(rec, monthRequest(testutil.NewRequest("POST", "/schedule/2030/4/generate"), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "MONTH_EXISTS")
}

func TestMonthParams_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name, year, month string
	}{
		{"month zero", "2030", "0"},
		{"month thirteen", "2030", "13"},
		{"not a number", "2030", "abr"},
		{"bad year", "x", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeMonth(rec, monthRequest(testutil.NewRequest("GET", "/schedule"), tt.year, tt.month, ""))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeMonth_NotGenerated(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.ServeMonth(rec, monthRequest(testutil.NewRequest("GET", "/schedule/2030/4"), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleRegenerate_NeedsConfirm(t *testing.T) {
	h, fx := newTestHandler(t)
	seedMembers(t, fx)
	generate(t, h)

	rec := testutil.NewRecorder()
	h.HandleRegenerate(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/schedule/2030/4/regenerate", map[string]any{}), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "CONFIRMATION_REQUIRED")

	rec = testutil.NewRecorder()
	h.HandleRegenerate(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/schedule/2030/4/regenerate", map[string]bool{"confirm": true}), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusOK)
	var m models.ScheduleMonth
	rec.Decode(t, &m)
	if m.Version != 2 {
		t.Errorf("version: got %d, want 2", m.Version)
	}
}

func TestHandleAssign(t *testing.T) {
	h, fx := newTestHandler(t)
	members := seedMembers(t, fx)
	generate(t, h)

	// null member_id clears the day.
	rec := testutil.NewRecorder()
	h.HandleAssign(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/schedule/2030/4/days/5/assign", `{"member_id":null}`), "2030", "4", "5"))
	rec.AssertStatus(t, http.StatusOK)
	var m models.ScheduleMonth
	rec.Decode(t, &m)
	if !m.Days[4].Vacant() {
		t.Errorf("day 5 should be vacant, got %v", *m.Days[4].MemberID)
	}

	rec = testutil.NewRecorder()
	h.HandleAssign(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/schedule/2030/4/days/5/assign", map[string]string{"member_id": members[2].ID}), "2030", "4", "5"))
	rec.AssertStatus(t, http.StatusOK)
	rec.Decode(t, &m)
	if m.Days[4].MemberID == nil || *m.Days[4].MemberID != members[2].ID || m.Days[4].MemberName != "Calango" {
		t.Errorf("day 5: got %+v", m.Days[4])
	}

	tests := []struct {
		name   string
		day    string
		body   any
		status int
	}{
		{"unknown member", "5", map[string]string{"member_id": "nope"}, http.StatusNotFound},
		{"day out of range", "31", `{"member_id":null}`, http.StatusBadRequest},
		{"day not a number", "x", `{"member_id":null}`, http.StatusBadRequest},
		{"unknown field", "5", map[string]string{"member": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleAssign(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/assign", tt.body), "2030", "4", tt.day))
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandleToggleAndSwap(t *testing.T) {
	h, fx := newTestHandler(t)
	seedMembers(t, fx)
	orig := generate(t, h)

	rec := testutil.NewRecorder()
	h.HandleToggle(rec, monthRequest(testutil.NewRequest("POST", "/toggle"), "2030", "4", "2"))
	rec.AssertStatus(t, http.StatusOK)
	var m models.ScheduleMonth
	rec.Decode(t, &m)
	if !m.Days[1].Vacant() {
		t.Fatal("toggle should vacate an assigned day")
	}

	rec = testutil.NewRecorder()
	h.HandleSwap(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/swap", map[string]int{"day_a": 1, "day_b": 2}), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusOK)
	rec.Decode(t, &m)
	if !m.Days[0].Vacant() {
		t.Error("day 1 should hold the vacancy after the swap")
	}
	if m.Days[1].MemberID == nil || *m.Days[1].MemberID != *orig.Days[0].MemberID {
		t.Errorf("day 2 should hold day 1's member, got %+v", m.Days[1])
	}
	if m.Days[0].Date != orig.Days[0].Date || m.Days[0].Weekday != orig.Days[0].Weekday {
		t.Error("swap must not move dates or weekdays")
	}

	rec = testutil.NewRecorder()
	h.HandleSwap(rec, monthRequest(testutil.NewJSONRequest(t, "POST", "/swap", map[string]int{"day_a": 1}), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusBadRequest)
}

type fakeWatcher struct {
	updates []models.ScheduleMonth
}

func (f fakeWatcher) Watch(ctx context.Context, year, month0 int, fn func(models.ScheduleMonth) error) error {
	for _, u := range f.updates {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

func TestServeEvents(t *testing.T) {
	h, fx := newTestHandler(t)
	seedMembers(t, fx)
	generate(t, h)
	h.Watcher = fakeWatcher{updates: []models.ScheduleMonth{{ID: "2030-04", Version: 7}}}

	rec := testutil.NewRecorder()
	h.ServeEvents(rec, monthRequest(testutil.NewRequest("GET", "/events"), "2030", "4", ""))
	rec.AssertStatus(t, http.StatusOK)

	body := rec.Body.String()
	if n := strings.Count(body, "event: snapshot"); n != 2 {
		t.Errorf("expected the stored month plus one update, got %d events:\n%s", n, body)
	}
	if !strings.Contains(body, `"version":7`) {
		t.Errorf("update missing from stream:\n%s", body)
	}
}

func TestRoutes_WritesNeedCommand(t *testing.T) {
	h, fx := newTestHandler(t)
	seedMembers(t, fx)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-0123456789", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	router := schedule.Routes(h, sm.RequireRole("Presidente"))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("POST", "/2030/4/generate"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/2030/4/generate", testutil.RankAndFileUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/2030/4/generate", testutil.CommandUser()))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/2030/4"))
	rec.AssertStatus(t, http.StatusOK)
}
