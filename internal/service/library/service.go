// Package library aggregates calculations across all registered types: the
// per-user dashboard listing and the admin views that cut across owners.
package library

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/config"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// Repo is the per-type storage contract the library drives: per-user
// listing plus the owner-unscoped admin side.
type Repo interface {
	Type() domain.CalcType
	List(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.CalcSummary, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.CalcRecord, error)
	GetNameAny(ctx context.Context, id uuid.UUID) (string, error)
	DeleteAny(ctx context.Context, id uuid.UUID) (bool, error)
	ListAll(ctx context.Context, filter domain.CalcAdminFilter) ([]domain.AdminCalcRow, error)
}

// userDirectory resolves username filters and labels for admin views.
type userDirectory interface {
	FindIDsByUsernameLike(ctx context.Context, needle string) ([]uuid.UUID, error)
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type auditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord)
}

// Service provides the cross-type library views.
type Service struct {
	repos map[string]Repo
	order []string
	users userDirectory
	audit auditSink
	trail auditLog
	log   *slog.Logger

	listLimit      int
	adminListLimit int
}

// NewService creates a library service over the given per-type repos.
// Listing order follows registration order.
func NewService(log *slog.Logger, users userDirectory, audit auditSink, cfg config.LibraryConfig, repos ...Repo) *Service {
	byEntity := make(map[string]Repo, len(repos))
	order := make([]string, 0, len(repos))
	for _, r := range repos {
		byEntity[r.Type().Entity] = r
		order = append(order, r.Type().Entity)
	}
	return &Service{
		repos:          byEntity,
		order:          order,
		users:          users,
		audit:          audit,
		log:            log.With("service", "library"),
		listLimit:      cfg.ListLimit,
		adminListLimit: cfg.AdminListLimit,
	}
}

func (s *Service) repoFor(entity string) (Repo, error) {
	r, ok := s.repos[entity]
	if !ok {
		return nil, domain.NewValidationError("type", "unknown calculation type")
	}
	return r, nil
}
