package calc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres/calc"
	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres/testhelper"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T, typ domain.CalcType) (*calc.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return calc.New(pool, typ, calc.NewColumnCache()), pool
}

func samplePayload() map[string]any {
	return map[string]any{
		"base": map[string]any{
			"nps_in":     float64(4),
			"asme_class": float64(300),
		},
		"body": map[string]any{"wall_mm": 12.5},
	}
}

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}

// ---------------------------------------------------------------------------
// Create / Get
// ---------------------------------------------------------------------------

func TestRepo_Integration_CreateGetRoundTrip(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC001)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	designID := testhelper.SeedDesign(t, pool, user.ID, "Gate valve 4in")

	id, err := repo.Create(ctx, user.ID, "  Wall thickness  ", samplePayload(), &designID)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.Name != "Wall thickness" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.OwnerID != user.ID {
		t.Errorf("OwnerID mismatch: got %s, want %s", got.OwnerID, user.ID)
	}
	if got.DesignID == nil || *got.DesignID != designID {
		t.Errorf("DesignID mismatch: got %v, want %s", got.DesignID, designID)
	}
	base, ok := got.Payload["base"].(map[string]any)
	if !ok {
		t.Fatalf("expected base section in payload, got %v", got.Payload)
	}
	if base["nps_in"] != float64(4) {
		t.Errorf("payload nps_in mismatch: got %v", base["nps_in"])
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected database-assigned timestamps")
	}
}

func TestRepo_Integration_CreateDefaultName(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC003)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)

	id, err := repo.Create(ctx, user.ID, "   ", nil, nil)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	name, err := repo.GetName(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetName: unexpected error: %v", err)
	}
	if name != domain.TypeDC003.DefaultName {
		t.Errorf("expected default name %q, got %q", domain.TypeDC003.DefaultName, name)
	}
}

func TestRepo_Integration_CreateOnTableWithoutLinkColumn(t *testing.T) {
	t.Parallel()
	// dc011_calcs has no design_id column in the current schema; the link
	// request must be dropped silently rather than failing the create.
	repo, pool := newRepo(t, domain.TypeDC011)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	designID := testhelper.SeedDesign(t, pool, user.ID, "Orphan design")

	id, err := repo.Create(ctx, user.ID, "DC011 run", samplePayload(), &designID)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.DesignID != nil {
		t.Errorf("expected no design link, got %v", got.DesignID)
	}
}

func TestRepo_Integration_GetByID_WrongOwner(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC001)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool, domain.RoleUser)
	stranger := testhelper.SeedUser(t, pool, domain.RoleUser)
	id := testhelper.SeedCalc(t, pool, domain.TypeDC001, owner.ID, "private", nil, nil)

	_, err := repo.GetByID(ctx, stranger.ID, id)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestRepo_Integration_Update(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC002)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	id := testhelper.SeedCalc(t, pool, domain.TypeDC002, user.ID, "before", samplePayload(), nil)

	before, err := repo.GetByID(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetByID before: %v", err)
	}

	newName := "after"
	newPayload := map[string]any{"body": map[string]any{"wall_mm": 14.0}}
	updated, err := repo.Update(ctx, user.ID, id, domain.CalcUpdateParams{
		Name:    &newName,
		Payload: newPayload,
	})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected updated=true")
	}

	after, err := repo.GetByID(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetByID after: %v", err)
	}
	if after.Name != "after" {
		t.Errorf("expected renamed record, got %q", after.Name)
	}
	if _, ok := after.Payload["base"]; ok {
		t.Error("expected payload replaced wholesale, base section still present")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("expected updated_at to advance: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestRepo_Integration_Update_MissingRow(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC002)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)

	name := "whatever"
	updated, err := repo.Update(ctx, user.ID, uuid.New(), domain.CalcUpdateParams{Name: &name})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if updated {
		t.Error("expected updated=false for missing row")
	}
}

func TestRepo_Integration_Update_WrongOwner(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC002)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool, domain.RoleUser)
	stranger := testhelper.SeedUser(t, pool, domain.RoleUser)
	id := testhelper.SeedCalc(t, pool, domain.TypeDC002, owner.ID, "mine", nil, nil)

	name := "stolen"
	updated, err := repo.Update(ctx, stranger.ID, id, domain.CalcUpdateParams{Name: &name})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if updated {
		t.Error("expected updated=false for foreign record")
	}

	got, err := repo.GetName(ctx, owner.ID, id)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if got != "mine" {
		t.Errorf("record was modified across owners: %q", got)
	}
}

func TestRepo_Integration_Update_LinkOnAbsentColumn(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC012)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	designID := testhelper.SeedDesign(t, pool, user.ID, "D")
	id := testhelper.SeedCalc(t, pool, domain.TypeDC012, user.ID, "run", nil, nil)

	updated, err := repo.Update(ctx, user.ID, id, domain.CalcUpdateParams{DesignID: &designID})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected updated=true even though the link was dropped")
	}
}

// ---------------------------------------------------------------------------
// Delete / List
// ---------------------------------------------------------------------------

func TestRepo_Integration_Delete(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC005)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	id := testhelper.SeedCalc(t, pool, domain.TypeDC005, user.ID, "gone soon", nil, nil)

	deleted, err := repo.Delete(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}

	_, err = repo.GetByID(ctx, user.ID, id)
	assertIsDomainError(t, err, domain.ErrNotFound)

	deleted, err = repo.Delete(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("second Delete: unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false the second time")
	}
}

func TestRepo_Integration_List(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC006A)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.RoleUser)
	other := testhelper.SeedUser(t, pool, domain.RoleUser)

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, user.ID, "mine", nil, nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := repo.Create(ctx, other.ID, "theirs", nil, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := repo.List(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for _, s := range items {
		if s.Name != "mine" {
			t.Errorf("foreign record leaked into listing: %q", s.Name)
		}
	}

	limited, err := repo.List(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("List limited: unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit applied, got %d items", len(limited))
	}
}

// ---------------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------------

func TestRepo_Integration_GetAnyCrossOwner(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC001A)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool, domain.RoleUser)
	id := testhelper.SeedCalc(t, pool, domain.TypeDC001A, owner.ID, "anyone", nil, nil)

	got, err := repo.GetAny(ctx, id)
	if err != nil {
		t.Fatalf("GetAny: unexpected error: %v", err)
	}
	if got.OwnerID != owner.ID {
		t.Errorf("OwnerID mismatch: got %s, want %s", got.OwnerID, owner.ID)
	}

	name, err := repo.GetNameAny(ctx, id)
	if err != nil {
		t.Fatalf("GetNameAny: unexpected error: %v", err)
	}
	if name != "anyone" {
		t.Errorf("expected name %q, got %q", "anyone", name)
	}

	deleted, err := repo.DeleteAny(ctx, id)
	if err != nil {
		t.Fatalf("DeleteAny: unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true")
	}
}

func TestRepo_Integration_ListAllFilters(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t, domain.TypeDC002A)
	ctx := context.Background()

	alice := testhelper.SeedUser(t, pool, domain.RoleUser)
	bob := testhelper.SeedUser(t, pool, domain.RoleUser)
	designID := testhelper.SeedDesign(t, pool, alice.ID, "ListAll design")

	marker := "listall-" + uuid.New().String()[:8]
	testhelper.SeedCalc(t, pool, domain.TypeDC002A, alice.ID, marker+"-linked", nil, &designID)
	testhelper.SeedCalc(t, pool, domain.TypeDC002A, alice.ID, marker+"-plain", nil, nil)
	testhelper.SeedCalc(t, pool, domain.TypeDC002A, bob.ID, marker+"-bob", nil, nil)

	nameLike := marker
	rows, err := repo.ListAll(ctx, domain.CalcAdminFilter{NameLike: &nameLike})
	if err != nil {
		t.Fatalf("ListAll: unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows for name filter, got %d", len(rows))
	}

	rows, err = repo.ListAll(ctx, domain.CalcAdminFilter{
		NameLike: &nameLike,
		OwnerIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("ListAll by owner: unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].OwnerID != bob.ID {
		t.Fatalf("expected only bob's row, got %+v", rows)
	}

	rows, err = repo.ListAll(ctx, domain.CalcAdminFilter{
		NameLike: &nameLike,
		DesignID: &designID,
	})
	if err != nil {
		t.Fatalf("ListAll by design: unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 linked row, got %d", len(rows))
	}
	if rows[0].DesignID == nil || *rows[0].DesignID != designID {
		t.Errorf("expected design link on row, got %v", rows[0].DesignID)
	}
}
