package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Register provisions a new account. Accounts are created by admins, not by
// self-signup, so the caller must hold an admin role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Only a superadmin may mint another admin.
	if input.Role != domain.RoleUser && actor.Role != domain.RoleSuperadmin {
		return nil, domain.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth.Register hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Role:         input.Role,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.Register create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered",
		slog.String("admin_id", actor.ID.String()),
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role))

	return user, nil
}
