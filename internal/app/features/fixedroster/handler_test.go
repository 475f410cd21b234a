package fixedroster_test

import (
	"net/http"
	"testing"

	uierrors "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/errors"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/features/fixedroster"
	fixedrosterstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/fixedroster"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*fixedroster.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := fixedroster.NewHandler(fixedrosterstore.New(db), memberstore.New(db), nil, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func TestServeRoster_Default(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeRoster(rec, testutil.NewRequest("GET", "/fixed-roster"))
	rec.AssertStatus(t, http.StatusOK)

	var fr models.FixedRoster
	rec.Decode(t, &fr)
	want := []string{"1-7", "8-14", "15-21", "22-FIM"}
	if len(fr.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(fr.Rows))
	}
	for i, p := range want {
		if fr.Rows[i].Period != p || fr.Rows[i].Primary != nil {
			t.Errorf("row %d: got %+v", i, fr.Rows[i])
		}
	}
}

func TestHandleSetRow(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateMember(ctx, "Abutre", "F4-01", "Prefeito")
	b := fx.CreateMember(ctx, "Bigode", "7", "Membro")

	body := map[string]any{"primary": a.ID, "auxiliary": []any{nil, b.ID}}
	rec := testutil.NewRecorder()
	h.HandleSetRow(rec, testutil.WithChiURLParam(testutil.NewJSONRequest(t, "POST", "/fixed-roster/3", body), "row", "3"))
	rec.AssertStatus(t, http.StatusOK)

	var fr models.FixedRoster
	rec.Decode(t, &fr)
	row := fr.Rows[3]
	if row.Period != "22-FIM" {
		t.Errorf("period label changed: %q", row.Period)
	}
	if row.Primary == nil || row.Primary.Name != "Abutre" {
		t.Errorf("primary: got %+v", row.Primary)
	}
	if row.Auxiliary[0] != nil || row.Auxiliary[1] == nil || row.Auxiliary[1].ID != b.ID {
		t.Errorf("auxiliary: got %+v", row.Auxiliary)
	}
	for i := 0; i < 3; i++ {
		if fr.Rows[i].Primary != nil {
			t.Errorf("row %d touched", i)
		}
	}

	// Reading back goes through the stored document.
	rec = testutil.NewRecorder()
	h.ServeRoster(rec, testutil.NewRequest("GET", "/fixed-roster"))
	var again models.FixedRoster
	rec.Decode(t, &again)
	if again.Rows[3].Primary == nil || again.Rows[3].Primary.ID != a.ID {
		t.Errorf("stored row: got %+v", again.Rows[3])
	}
}

func TestHandleSetRow_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		row    string
		body   any
		status int
	}{
		{"row too high", "4", map[string]any{}, http.StatusBadRequest},
		{"row negative", "-1", map[string]any{}, http.StatusBadRequest},
		{"row not a number", "first", map[string]any{}, http.StatusBadRequest},
		{"unknown primary", "0", map[string]any{"primary": "ghost"}, http.StatusNotFound},
		{"unknown auxiliary", "0", map[string]any{"auxiliary": []any{"ghost", nil}}, http.StatusNotFound},
		{"blank primary", "0", map[string]any{"primary": "  "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleSetRow(rec, testutil.WithChiURLParam(testutil.NewJSONRequest(t, "POST", "/fixed-roster/x", tt.body), "row", tt.row))
			rec.AssertStatus(t, tt.status)
		})
	}
}
