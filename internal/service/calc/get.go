package calc

import (
	"context"
	"fmt"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Get returns one calculation owned by the current actor.
// Another user's record is domain.ErrNotFound, never a distinct error.
func (s *Service) Get(ctx context.Context, input GetInput) (*domain.CalcRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return nil, err
	}

	rec, err := repo.GetByID(ctx, actor.ID, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", input.Entity, err)
	}

	return rec, nil
}

// List returns the current actor's calculations of one type,
// newest activity first.
func (s *Service) List(ctx context.Context, input ListInput) ([]domain.CalcSummary, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit == 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	out, err := repo.List(ctx, actor.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", input.Entity, err)
	}

	return out, nil
}
