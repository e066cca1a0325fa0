package testhelper

import (
	"context"
	"testing"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	user := SeedUser(t, pool, domain.RoleUser)
	designID := SeedDesign(t, pool, user.ID, "Gate valve 4in")
	calcID := SeedCalc(t, pool, domain.TypeDC001, user.ID, "DC001", nil, &designID)

	var name string
	err := pool.QueryRow(
		context.Background(),
		`SELECT name FROM dc001_calcs WHERE id = $1 AND owner_id = $2`,
		calcID, user.ID,
	).Scan(&name)
	if err != nil {
		t.Fatalf("expected calc in DB, got error: %v", err)
	}

	if name != "DC001" {
		t.Fatalf("expected name %q, got %q", "DC001", name)
	}
}
