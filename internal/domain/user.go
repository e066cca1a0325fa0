package domain

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Admin roles unlock the cross-user library views.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User is an account that owns calculations.
type User struct {
	ID           uuid.UUID
	Username     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}
