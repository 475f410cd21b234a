package memberstore_test

import (
	"errors"
	"testing"

	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/indexes"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/testutil"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{Name: "  Pedrão ", CumbraID: "f4-03", Role: "Presidente"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated id")
	}
	if !m.RosterActive {
		t.Error("new members should start in the rotation")
	}

	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Pedrão" {
		t.Errorf("Name: got %q, want %q", got.Name, "Pedrão")
	}
	if got.NameCI != "pedrao" {
		t.Errorf("NameCI: got %q, want %q", got.NameCI, "pedrao")
	}
	if got.CumbraID != "F4-03" || got.Tier() != models.TierFounder {
		t.Errorf("CumbraID: got %q (tier %v)", got.CumbraID, got.Tier())
	}
}

func TestStore_Create_EmptyCodeIsProbationary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{Name: "Novato"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.CumbraID != "-" || m.Tier() != models.TierProbationary {
		t.Errorf("got code %q tier %v", m.CumbraID, m.Tier())
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := memberstore.New(db)

	if _, err := store.Create(ctx, models.Member{Name: "João"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Member{Name: "JOAO"})
	if !errors.Is(err, memberstore.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateAndSetActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Member{Name: "Alfa", CumbraID: "12"})
	b, _ := store.Create(ctx, models.Member{Name: "Bravo", CumbraID: "13"})

	role := "Tesoureiro"
	name := "Alfa Jr"
	got, err := store.Update(ctx, a.ID, memberstore.Update{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "Alfa Jr" || got.Role != "Tesoureiro" || got.CumbraID != "12" {
		t.Errorf("unexpected member after update: %+v", got)
	}

	if _, err := store.SetActive(ctx, b.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("ListActive: got %+v", active)
	}
	all, _ := store.List(ctx)
	if len(all) != 2 {
		t.Errorf("List: got %d members, want 2", len(all))
	}

	if _, err := store.SetActive(ctx, "missing", true); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
