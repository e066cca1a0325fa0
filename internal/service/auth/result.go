package auth

import "github.com/mkravets/valvecalc-backend/internal/domain"

// AuthResult is returned by Login: the signed access token and the
// authenticated user.
type AuthResult struct {
	AccessToken string
	User        *domain.User
}
