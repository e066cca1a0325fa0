package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the fixed vocabulary of mutating actions. Always lower-case
// in storage; the audit sink lower-cases whatever the caller passed.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// Actor is a point-in-time snapshot of the acting user, captured when the
// action happens. Never a live reference to session state.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

// IsAdmin reports whether the actor may use cross-user operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperadmin
}

// AuditRecord is one append-only log row describing a mutating action.
// Records are never updated or deleted, and writing one must never fail the
// operation it describes (see adapter/postgres/audit).
type AuditRecord struct {
	ID         uuid.UUID
	Actor      Actor
	Action     AuditAction
	EntityType string
	EntityID   *uuid.UUID
	EntityName *string
	// Details is a compact caller-supplied summary, not the full payload.
	Details map[string]any
	// IPAddr is the actor's network origin, already validated or empty.
	IPAddr    string
	CreatedAt time.Time
}
