package calc

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

const maxNameLen = 200

// CreateInput holds the parameters for creating a calculation.
type CreateInput struct {
	Entity   string
	Name     string
	Payload  map[string]any
	DesignID *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate(maxPayloadBytes int) error {
	var errs []domain.FieldError

	if i.Entity == "" {
		errs = append(errs, domain.FieldError{Field: "type", Message: "required"})
	}
	if len(i.Name) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	if i.Payload == nil {
		errs = append(errs, domain.FieldError{Field: "payload", Message: "required"})
	} else if err := checkPayloadSize(i.Payload, maxPayloadBytes); err != nil {
		errs = append(errs, *err)
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// GetInput holds the parameters for fetching one calculation.
type GetInput struct {
	Entity string
	ID     uuid.UUID
}

// Validate checks all fields.
func (i GetInput) Validate() error {
	if i.ID == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return nil
}

// ListInput holds the parameters for listing calculations.
type ListInput struct {
	Entity string
	Limit  int
}

// Validate checks all fields.
func (i ListInput) Validate() error {
	if i.Limit < 0 {
		return domain.NewValidationError("limit", "must be non-negative")
	}
	return nil
}

// UpdateInput holds the optional fields of an update. All-nil fields make
// the update a contract no-op.
type UpdateInput struct {
	Entity   string
	ID       uuid.UUID
	Name     *string
	Payload  map[string]any
	DesignID *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate(maxPayloadBytes int) error {
	var errs []domain.FieldError

	if i.ID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Name != nil && len(*i.Name) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	if i.Payload != nil {
		if err := checkPayloadSize(i.Payload, maxPayloadBytes); err != nil {
			errs = append(errs, *err)
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// DeleteInput holds the parameters for deleting a calculation.
type DeleteInput struct {
	Entity string
	ID     uuid.UUID
}

// Validate checks all fields.
func (i DeleteInput) Validate() error {
	if i.ID == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return nil
}

// checkPayloadSize rejects documents whose JSON encoding exceeds the limit.
func checkPayloadSize(payload map[string]any, maxBytes int) *domain.FieldError {
	buf, err := json.Marshal(payload)
	if err != nil {
		return &domain.FieldError{Field: "payload", Message: "not JSON-encodable"}
	}
	if len(buf) > maxBytes {
		return &domain.FieldError{Field: "payload", Message: "too large"}
	}
	return nil
}
