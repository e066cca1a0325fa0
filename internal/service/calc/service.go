// Package calc provides the per-type CRUD operations behind the calculation
// pages: create, get, list, update (incl. rename), delete. Every mutation
// emits one best-effort audit record with a point-in-time actor snapshot.
package calc

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/config"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// Repo is the per-type storage contract the service drives.
type Repo interface {
	Type() domain.CalcType
	CleanName(name string) string
	Create(ctx context.Context, ownerID uuid.UUID, name string, payload map[string]any, designID *uuid.UUID) (uuid.UUID, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.CalcRecord, error)
	GetName(ctx context.Context, ownerID, id uuid.UUID) (string, error)
	List(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.CalcSummary, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, params domain.CalcUpdateParams) (bool, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

// auditSink is the best-effort audit recorder. Record returns nothing: the
// sink absorbs its own failures, so calling it can never fail the mutation.
type auditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord)
}

// Service provides calculation CRUD for every registered type.
type Service struct {
	repos map[string]Repo
	audit auditSink
	log   *slog.Logger

	listLimit       int
	maxPayloadBytes int
}

// NewService creates a calculation service over the given per-type repos.
func NewService(log *slog.Logger, audit auditSink, cfg config.LibraryConfig, repos ...Repo) *Service {
	byEntity := make(map[string]Repo, len(repos))
	for _, r := range repos {
		byEntity[r.Type().Entity] = r
	}
	return &Service{
		repos:           byEntity,
		audit:           audit,
		log:             log.With("service", "calc"),
		listLimit:       cfg.ListLimit,
		maxPayloadBytes: cfg.MaxPayloadBytes,
	}
}

// repoFor resolves the repo serving an entity tag.
func (s *Service) repoFor(entity string) (Repo, error) {
	r, ok := s.repos[entity]
	if !ok {
		return nil, domain.NewValidationError("type", "unknown calculation type")
	}
	return r, nil
}
