package library

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// AdminListInput holds the cross-user listing filters.
type AdminListInput struct {
	Entity       string
	NameLike     string
	UsernameLike string
	DesignID     *uuid.UUID
	Limit        int
}

// Validate checks all fields.
func (i AdminListInput) Validate() error {
	var errs []domain.FieldError

	if i.Entity == "" {
		errs = append(errs, domain.FieldError{Field: "type", Message: "required"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// normalized trims the free-text filters so blank input means no filter.
func (i AdminListInput) normalized() AdminListInput {
	i.NameLike = strings.TrimSpace(i.NameLike)
	i.UsernameLike = strings.TrimSpace(i.UsernameLike)
	return i
}

// AdminGetInput holds the parameters for an admin record fetch.
type AdminGetInput struct {
	Entity string
	ID     uuid.UUID
}

// Validate checks all fields.
func (i AdminGetInput) Validate() error {
	if i.ID == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return nil
}
