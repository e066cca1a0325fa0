package library

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// AdminRow is one cross-user listing row with the owner's username resolved.
type AdminRow struct {
	domain.AdminCalcRow
	OwnerUsername string
}

// AdminRecord is a full record with its owner's username resolved.
type AdminRecord struct {
	Record        *domain.CalcRecord
	OwnerUsername string
}

// adminActor enforces the cross-user permission gate.
func adminActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return domain.Actor{}, domain.ErrForbidden
	}
	return actor, nil
}

// AdminList lists calculations of one type across all users. The username
// filter resolves to owner ids first; no match means an empty result, not an
// unfiltered one.
func (s *Service) AdminList(ctx context.Context, input AdminListInput) ([]AdminRow, error) {
	if _, err := adminActor(ctx); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.normalized()

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return nil, err
	}

	filter := domain.CalcAdminFilter{
		DesignID: input.DesignID,
		Limit:    input.Limit,
	}
	if filter.Limit <= 0 || filter.Limit > s.adminListLimit {
		filter.Limit = s.adminListLimit
	}
	if input.NameLike != "" {
		filter.NameLike = &input.NameLike
	}
	if input.UsernameLike != "" {
		ids, err := s.users.FindIDsByUsernameLike(ctx, input.UsernameLike)
		if err != nil {
			return nil, fmt.Errorf("resolve username filter: %w", err)
		}
		if len(ids) == 0 {
			return []AdminRow{}, nil
		}
		filter.OwnerIDs = ids
	}

	rows, err := repo.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin list %s: %w", input.Entity, err)
	}

	return s.labelRows(ctx, rows)
}

// labelRows attaches owner usernames to raw listing rows. A failed lookup
// leaves the labels blank rather than failing the listing.
func (s *Service) labelRows(ctx context.Context, rows []domain.AdminCalcRow) ([]AdminRow, error) {
	ownerSet := make(map[uuid.UUID]struct{}, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if _, seen := ownerSet[row.OwnerID]; !seen {
			ownerSet[row.OwnerID] = struct{}{}
			ids = append(ids, row.OwnerID)
		}
	}

	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		resolved, err := s.users.UsernamesByIDs(ctx, ids)
		if err != nil {
			s.log.WarnContext(ctx, "owner username lookup failed", slog.String("error", err.Error()))
		} else {
			names = resolved
		}
	}

	out := make([]AdminRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, AdminRow{AdminCalcRow: row, OwnerUsername: names[row.OwnerID]})
	}
	return out, nil
}

// AdminGet fetches one calculation of one type regardless of owner.
func (s *Service) AdminGet(ctx context.Context, input AdminGetInput) (*AdminRecord, error) {
	if _, err := adminActor(ctx); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return nil, err
	}

	rec, err := repo.GetAny(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("admin get %s: %w", input.Entity, err)
	}

	out := &AdminRecord{Record: rec}
	if names, err := s.users.UsernamesByIDs(ctx, []uuid.UUID{rec.OwnerID}); err == nil {
		out.OwnerUsername = names[rec.OwnerID]
	}
	return out, nil
}

// AdminDelete removes one calculation regardless of owner. The deletion is
// audited under the admin's snapshot.
func (s *Service) AdminDelete(ctx context.Context, input AdminGetInput) (bool, error) {
	actor, err := adminActor(ctx)
	if err != nil {
		return false, err
	}

	if err := input.Validate(); err != nil {
		return false, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return false, err
	}

	var auditName *string
	if name, nameErr := repo.GetNameAny(ctx, input.ID); nameErr == nil {
		auditName = &name
	}

	deleted, err := repo.DeleteAny(ctx, input.ID)
	if err != nil {
		return false, fmt.Errorf("admin delete %s: %w", input.Entity, err)
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
		Details:    map[string]any{"admin": true},
		IPAddr:     ctxutil.ClientIPFromCtx(ctx),
	})

	s.log.InfoContext(ctx, "calculation deleted by admin",
		slog.String("admin_id", actor.ID.String()),
		slog.String("type", input.Entity),
		slog.String("calc_id", input.ID.String()),
	)

	return true, nil
}
