package calc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Create stores a new calculation for the current actor and returns its id.
func (s *Service) Create(ctx context.Context, input CreateInput) (uuid.UUID, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}

	if err := input.Validate(s.maxPayloadBytes); err != nil {
		return uuid.Nil, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := repo.Create(ctx, actor.ID, input.Name, input.Payload, input.DesignID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create %s: %w", input.Entity, err)
	}

	name := repo.CleanName(input.Name)
	s.audit.Record(ctx, domain.AuditRecord{
		Actor:      actor,
		Action:     domain.AuditActionCreate,
		EntityType: input.Entity,
		EntityID:   &id,
		EntityName: &name,
		Details:    map[string]any{"summary": payloadSummary(input.Payload, input.DesignID)},
		IPAddr:     ctxutil.ClientIPFromCtx(ctx),
	})

	s.log.InfoContext(ctx, "calculation created",
		slog.String("user_id", actor.ID.String()),
		slog.String("type", input.Entity),
		slog.String("calc_id", id.String()),
	)

	return id, nil
}

// payloadSummary pulls the compact header fields shown in audit trails:
// pipe size, pressure class, and the parent design reference. Calculations
// keep these under a "base" section; the parent valve design document keeps
// them at top level.
func payloadSummary(payload map[string]any, designID *uuid.UUID) map[string]any {
	src := payload
	if base, ok := payload["base"].(map[string]any); ok {
		src = base
	}

	summary := map[string]any{
		"nps_in":     src["nps_in"],
		"asme_class": src["asme_class"],
	}
	if v, ok := src["valve_design_id"]; ok && v != nil {
		summary["valve_design_id"] = v
	} else if designID != nil {
		summary["valve_design_id"] = designID.String()
	}
	return summary
}
