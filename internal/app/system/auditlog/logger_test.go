package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auth"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.ScheduleGenerated(ctx, auditlog.Actor{}, "2026-03", "epoch", 3)
	logger.PresenceChanged(ctx, auditlog.Actor{}, "annual_2026", "m1", 0, 0, true)
}

func TestLogger_ZapOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Session: auditlog.Off, Changes: auditlog.Log})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.SignIn(ctx, auditlog.Actor{ID: "m1"}, "Presidente")
	logger.ScheduleOverride(ctx, auditlog.Actor{ID: "m1"}, "2026-03", "swap", []int{4, 9})

	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry (session off), got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["event_type"] != audit.EventScheduleOverride {
		t.Errorf("event_type: got %v", fields["event_type"])
	}
	if fields["detail_days"] != "4,9" {
		t.Errorf("detail_days: got %v", fields["detail_days"])
	}
}

func TestLogger_DB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Session: auditlog.DB, Changes: auditlog.DB})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := auditlog.Actor{ID: "m1", Name: "Alfa"}
	logger.ScheduleRegenerated(ctx, a, "2026-03", "continuation", 5, 4)
	logger.ScheduleOverride(ctx, a, "2026-03", "toggle", []int{2})

	destructive, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventScheduleRegenerated})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(destructive) != 1 || destructive[0].Details["version"] != "4" {
		t.Errorf("unexpected regeneration events: %+v", destructive)
	}
	all, _ := store.GetBySubject(ctx, "2026-03", 10)
	if len(all) != 2 {
		t.Errorf("expected 2 events for the month, got %d", len(all))
	}
}

func TestActorFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "m1", Name: "Alfa", Role: "Presidente"})

	a := auditlog.ActorFromRequest(r)
	if a.ID != "m1" || a.Name != "Alfa" || a.IP != "10.0.0.1" {
		t.Errorf("got %+v", a)
	}
}
