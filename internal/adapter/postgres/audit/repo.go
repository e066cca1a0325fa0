// Package audit implements the append-only audit sink using PostgreSQL.
// Writing an audit record is best-effort by contract: Record never returns
// an error, so a sink failure can never fail the mutation it describes.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	postgres "github.com/mkravets/valvecalc-backend/internal/adapter/postgres"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

const table = "audit_logs"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Sink provides audit log persistence backed by PostgreSQL.
type Sink struct {
	db  postgres.Querier
	log *slog.Logger
}

// NewSink creates a new audit sink.
func NewSink(db postgres.Querier, log *slog.Logger) *Sink {
	return &Sink{db: db, log: log.With("component", "audit")}
}

// ---------------------------------------------------------------------------
// Write side
// ---------------------------------------------------------------------------

// Record appends one audit entry. It never returns an error.
//
// The full entry is attempted first; if the insert fails for any reason it
// is retried exactly once with details and ip_addr cleared, which isolates
// failures caused by malformed structured data from real connectivity
// problems. A failed retry is logged and dropped.
func (s *Sink) Record(ctx context.Context, rec domain.AuditRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Action = domain.AuditAction(strings.ToLower(strings.TrimSpace(string(rec.Action))))
	rec.EntityType = strings.ToLower(strings.TrimSpace(rec.EntityType))
	rec.IPAddr = CleanIP(rec.IPAddr)

	if err := s.insert(ctx, rec); err != nil {
		rec.Details = nil
		rec.IPAddr = ""
		if retryErr := s.insert(ctx, rec); retryErr != nil {
			s.log.WarnContext(ctx, "audit record dropped",
				slog.String("entity_type", rec.EntityType),
				slog.String("action", string(rec.Action)),
				slog.String("error", retryErr.Error()),
			)
		}
	}
}

func (s *Sink) insert(ctx context.Context, rec domain.AuditRecord) error {
	var details any
	if rec.Details != nil {
		buf, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		details = buf
	}

	var ip any
	if rec.IPAddr != "" {
		ip = rec.IPAddr
	}

	query, args, err := psql.Insert(table).
		Columns(
			"id",
			"actor_user_id", "actor_username", "actor_role",
			"action", "entity_type", "entity_id", "entity_name",
			"details", "ip_addr",
		).
		Values(
			rec.ID,
			rec.Actor.ID, rec.Actor.Username, rec.Actor.Role,
			string(rec.Action), rec.EntityType, uuidPtrToPgUUID(rec.EntityID), rec.EntityName,
			details, ip,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// CleanIP validates a network origin. A single trailing ":port" suffix is
// stripped first; anything that still does not parse as an address is
// dropped to empty rather than surfaced as an error.
func CleanIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// strip common "host:port"
	if i := strings.LastIndexByte(raw, ':'); i > 0 && strings.Count(raw, ":") == 1 && isDigits(raw[i+1:]) {
		raw = raw[:i]
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}
	return addr.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Read side (admin history views)
// ---------------------------------------------------------------------------

// GetByEntity returns the change history for a specific entity,
// newest first, bounded by limit.
func (s *Sink) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	return s.query(ctx, sq.Eq{
		"entity_type": strings.ToLower(entityType),
		"entity_id":   entityID,
	}, limit, 0)
}

// GetByActor returns audit records written for a given actor,
// newest first, with pagination.
func (s *Sink) GetByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]domain.AuditRecord, error) {
	return s.query(ctx, sq.Eq{"actor_user_id": actorID}, limit, offset)
}

func (s *Sink) query(ctx context.Context, where sq.Eq, limit, offset int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := psql.Select(
		"id",
		"actor_user_id", "actor_username", "actor_role",
		"action", "entity_type", "entity_id", "entity_name",
		"details", "ip_addr::text", "created_at",
	).
		From(table).
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit select: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			rec      domain.AuditRecord
			entityID pgtype.UUID
			details  []byte
			ip       *string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Actor.ID, &rec.Actor.Username, &rec.Actor.Role,
			&rec.Action, &rec.EntityType, &entityID, &rec.EntityName,
			&details, &ip, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if entityID.Valid {
			id := uuid.UUID(entityID.Bytes)
			rec.EntityID = &id
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &rec.Details); err != nil {
				return nil, fmt.Errorf("audit record %s unmarshal details: %w", rec.ID, err)
			}
		}
		if ip != nil {
			rec.IPAddr = *ip
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}

	return out, nil
}

// uuidPtrToPgUUID converts a *uuid.UUID to pgtype.UUID (nil -> NULL).
func uuidPtrToPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
