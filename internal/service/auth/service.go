// Package auth implements credential login and account provisioning.
package auth

import (
	"context"
	"log/slog"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// userRepo defines the user repository interface needed by auth service.
type userRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// tokenIssuer defines the JWT management interface needed by auth service.
type tokenIssuer interface {
	GenerateAccessToken(actor domain.Actor) (string, error)
}

// Service implements auth operations.
type Service struct {
	log   *slog.Logger
	users userRepo
	jwt   tokenIssuer
}

// NewService creates a new auth service instance.
func NewService(logger *slog.Logger, users userRepo, jwt tokenIssuer) *Service {
	return &Service{
		log:   logger.With("service", "auth"),
		users: users,
		jwt:   jwt,
	}
}
