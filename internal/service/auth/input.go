package auth

import (
	"slices"
	"unicode/utf8"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

const (
	maxUsernameLen = 64
	minPasswordLen = 8
	maxPasswordLen = 128
)

// LoginInput holds the credential login parameters.
type LoginInput struct {
	Username string
	Password string
}

// Validate validates the login input. Deliberately loose: a malformed
// username must fail the same way a wrong password does.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RegisterInput holds the account provisioning parameters.
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// Validate validates the registration input.
func (i RegisterInput) Validate() error {
	var errs []domain.FieldError

	if i.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	} else if utf8.RuneCountInString(i.Username) > maxUsernameLen {
		errs = append(errs, domain.FieldError{Field: "username", Message: "too long"})
	}

	switch {
	case i.Password == "":
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	case len(i.Password) < minPasswordLen:
		errs = append(errs, domain.FieldError{Field: "password", Message: "min 8 characters"})
	case len(i.Password) > maxPasswordLen:
		errs = append(errs, domain.FieldError{Field: "password", Message: "too long"})
	}

	validRoles := []string{domain.RoleUser, domain.RoleAdmin, domain.RoleSuperadmin}
	if !slices.Contains(validRoles, i.Role) {
		errs = append(errs, domain.FieldError{Field: "role", Message: "unknown role"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
