package calc

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Update applies the supplied fields to a calculation owned by the current
// actor. It returns whether a row changed: false with a nil error means
// either nothing was supplied or the record does not exist for this owner.
func (s *Service) Update(ctx context.Context, input UpdateInput) (bool, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}

	if err := input.Validate(s.maxPayloadBytes); err != nil {
		return false, err
	}

	repo, err := s.repoFor(input.Entity)
	if err != nil {
		return false, err
	}

	params := domain.CalcUpdateParams{
		Name:     input.Name,
		Payload:  input.Payload,
		DesignID: input.DesignID,
	}
	if params.IsEmpty() {
		return false, nil
	}

	// Read the stored record before the row changes: the audit diff compares
	// old against new, and the record name resolves the audit display name.
	// A failed read just means the diff has nothing to compare against.
	var prev *domain.CalcRecord
	if rec, readErr := repo.GetByID(ctx, actor.ID, input.ID); readErr == nil {
		prev = rec
	}

	var auditName *string
	if input.Name != nil {
		clean := repo.CleanName(*input.Name)
		params.Name = &clean
		auditName = &clean
	} else if prev != nil && prev.Name != "" {
		auditName = &prev.Name
	}

	updated, err := repo.Update(ctx, actor.ID, input.ID, params)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", input.Entity, err)
	}
	if !updated {
		return false, nil
	}

	var details map[string]any
	if changes := updateChanges(params, prev); len(changes) > 0 {
		details = map[string]any{"changes": changes}
	}

	s.audit.Record(ctx, domain.AuditRecord{
		Actor:      actor,
		Action:     domain.AuditActionUpdate,
		EntityType: input.Entity,
		EntityID:   &input.ID,
		EntityName: auditName,
		Details:    details,
		IPAddr:     ctxutil.ClientIPFromCtx(ctx),
	})

	s.log.InfoContext(ctx, "calculation updated",
		slog.String("user_id", actor.ID.String()),
		slog.String("type", input.Entity),
		slog.String("calc_id", input.ID.String()),
	)

	return true, nil
}

// updateChanges builds the compact change summary stored with an update
// audit record by comparing the applied params against the stored record.
// A rename records the old and new name; a payload update records which
// top-level sections actually differ, never their contents. Re-submitting
// identical data yields no changes. Without the old record every supplied
// section counts as changed, since there is nothing to compare against.
func updateChanges(params domain.CalcUpdateParams, prev *domain.CalcRecord) map[string]any {
	changes := map[string]any{}

	if params.Name != nil {
		oldName := ""
		if prev != nil {
			oldName = prev.Name
		}
		if *params.Name != oldName {
			changes["name"] = map[string]any{"old": oldName, "new": *params.Name}
		}
	}

	if params.Payload != nil {
		// The payload is replaced wholesale, so a section present only on
		// one side changed too.
		sections := map[string]struct{}{}
		for section := range params.Payload {
			sections[section] = struct{}{}
		}
		if prev != nil {
			for section := range prev.Payload {
				sections[section] = struct{}{}
			}
		}
		for section := range sections {
			if prev == nil || !reflect.DeepEqual(params.Payload[section], prev.Payload[section]) {
				changes[section] = map[string]any{"changed": true}
			}
		}
	}

	if params.DesignID != nil {
		if prev == nil || prev.DesignID == nil || *prev.DesignID != *params.DesignID {
			changes["valve_design_id"] = map[string]any{"new": params.DesignID.String()}
		}
	}

	return changes
}
