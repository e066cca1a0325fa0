package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with the given role. The stored password hash is
// an opaque placeholder; tests exercising login should hash their own
// password with bcrypt and insert it instead.
func SeedUser(t *testing.T, pool *pgxpool.Pool, role string) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Username:     "testuser-" + suffix,
		Role:         role,
		PasswordHash: "not-a-real-hash-" + suffix,
		CreatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, role, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Role, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedCalc inserts a calculation record into the table backing typ and
// returns its ID. The payload is marshaled to jsonb as-is; designID is
// written only when non-nil (the caller must know the table has the column).
func SeedCalc(t *testing.T, pool *pgxpool.Pool, typ domain.CalcType, ownerID uuid.UUID, name string, payload map[string]any, designID *uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("testhelper: SeedCalc marshal payload: %v", err)
	}

	id := uuid.New()
	if designID != nil {
		_, err = pool.Exec(ctx,
			`INSERT INTO `+typ.Table+` (id, owner_id, name, data, design_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, ownerID, name, data, *designID,
		)
	} else {
		_, err = pool.Exec(ctx,
			`INSERT INTO `+typ.Table+` (id, owner_id, name, data)
			 VALUES ($1, $2, $3, $4)`,
			id, ownerID, name, data,
		)
	}
	if err != nil {
		t.Fatalf("testhelper: SeedCalc insert into %s: %v", typ.Table, err)
	}

	return id
}

// SeedDesign creates a valve design record and returns its ID.
func SeedDesign(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	return SeedCalc(t, pool, domain.TypeValveDesign, ownerID, name, map[string]any{
		"base": map[string]any{"nps_in": 4, "asme_class": 300},
	}, nil)
}
