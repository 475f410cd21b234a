package fixedrosterstore_test

import (
	"errors"
	"testing"

	fixedrosterstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/fixedroster"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
)

func TestStore_Get_Default(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fixedrosterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fr, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(fr.Rows) != 4 || fr.Rows[3].Period != "22-FIM" {
		t.Errorf("unexpected default roster: %+v", fr.Rows)
	}
}

func TestStore_SetRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fixedrosterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := &models.MemberRef{ID: "m1", Name: "Alfa"}
	aux := [2]*models.MemberRef{{ID: "m2", Name: "Bravo"}, nil}
	fr, err := store.SetRow(ctx, 1, p, aux)
	if err != nil {
		t.Fatalf("SetRow failed: %v", err)
	}
	if fr.Rows[1].Primary == nil || fr.Rows[1].Primary.ID != "m1" {
		t.Errorf("row 1 primary: %+v", fr.Rows[1].Primary)
	}
	if fr.Rows[1].Auxiliary[0] == nil || fr.Rows[1].Auxiliary[1] != nil {
		t.Errorf("row 1 auxiliary: %+v", fr.Rows[1].Auxiliary)
	}
	if fr.Rows[1].Period != "8-14" {
		t.Errorf("row 1 period changed: %q", fr.Rows[1].Period)
	}
	if fr.Rows[0].Primary != nil {
		t.Error("row 0 should be untouched")
	}

	if _, err := store.SetRow(ctx, 4, nil, [2]*models.MemberRef{}); !errors.Is(err, fixedrosterstore.ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
}
