package library

import (
	"context"
	"fmt"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// TypeListing is one dashboard section: a calculation type and the current
// actor's records of that type.
type TypeListing struct {
	Type  domain.CalcType
	Items []domain.CalcSummary
}

// ListMine returns the current actor's calculations grouped by type, in
// registration order. An empty entity lists every type; a set entity narrows
// the result to that one section.
func (s *Service) ListMine(ctx context.Context, entity string, limit int) ([]TypeListing, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	entities := s.order
	if entity != "" {
		if _, err := s.repoFor(entity); err != nil {
			return nil, err
		}
		entities = []string{entity}
	}

	out := make([]TypeListing, 0, len(entities))
	for _, e := range entities {
		repo := s.repos[e]
		items, err := repo.List(ctx, actor.ID, limit)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", e, err)
		}
		out = append(out, TypeListing{Type: repo.Type(), Items: items})
	}
	return out, nil
}
