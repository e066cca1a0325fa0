package library

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// auditLog is the read side of the audit trail.
type auditLog interface {
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error)
	GetByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]domain.AuditRecord, error)
}

// AuditTrailInput selects an audit history slice, either by affected entity
// or by acting user.
type AuditTrailInput struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	Limit      int
	Offset     int
}

// Validate checks that exactly one trail dimension was selected.
func (i AuditTrailInput) Validate() error {
	byEntity := i.EntityID != nil
	byActor := i.ActorID != nil
	switch {
	case byEntity == byActor:
		return domain.NewValidationError("filter", "exactly one of entity_id or actor_id is required")
	case byEntity && i.EntityType == "":
		return domain.NewValidationError("entity_type", "required with entity_id")
	case i.Limit < 0:
		return domain.NewValidationError("limit", "must be non-negative")
	case i.Offset < 0:
		return domain.NewValidationError("offset", "must be non-negative")
	}
	return nil
}

// WithAuditLog attaches the audit read side. Kept separate from NewService
// because only the admin wiring needs it.
func (s *Service) WithAuditLog(trail auditLog) *Service {
	s.trail = trail
	return s
}

// AuditTrail returns audit history for admins, newest first.
func (s *Service) AuditTrail(ctx context.Context, input AuditTrailInput) ([]domain.AuditRecord, error) {
	if _, err := adminActor(ctx); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}
	if s.trail == nil {
		return nil, fmt.Errorf("audit trail: %w", domain.ErrNotFound)
	}

	limit := input.Limit
	if limit <= 0 || limit > s.adminListLimit {
		limit = s.adminListLimit
	}

	if input.EntityID != nil {
		recs, err := s.trail.GetByEntity(ctx, input.EntityType, *input.EntityID, limit)
		if err != nil {
			return nil, fmt.Errorf("audit trail by entity: %w", err)
		}
		return recs, nil
	}

	recs, err := s.trail.GetByActor(ctx, *input.ActorID, limit, input.Offset)
	if err != nil {
		return nil, fmt.Errorf("audit trail by actor: %w", err)
	}
	return recs, nil
}
