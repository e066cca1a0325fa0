package calc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Delete removes a calculation owned by the current actor. It returns
// whether a row was deleted; deleting a missing or foreign record is false
// with a nil error, not a failure.
func (s *Service) Delete(ctx context.Context, input DeleteInput) (bool, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return false, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return false, err
	}

	// The name has to be captured before the row is gone. Best effort: a
	// failed read only costs the audit record its name.
	var auditName *string
	if name, nameErr := repo.GetName(ctx, actor.ID, input.ID); nameErr == nil {
		auditName = &name
	}

	deleted, err := repo.Delete(ctx, actor.ID, input.ID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", input.Entity, err)
	}
	if !deleted {
		return false, nil
	}

	s.audit.Record(ctx, domain.AuditRecord{
		Actor:      actor,
		Action:     domain.AuditActionDelete,
		EntityType: input.Entity,
		EntityID:   &input.ID,
		EntityName: auditName,
		IPAddr:     ctxutil.ClientIPFromCtx(ctx),
	})

	s.log.InfoContext(ctx, "calculation deleted",
		slog.String("user_id", actor.ID.String()),
		slog.String("type", input.Entity),
		slog.String("calc_id", input.ID.String()),
	)

	return true, nil
}
