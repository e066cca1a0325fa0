// Package calc implements the schema-tolerant calculation store. One Repo,
// parameterized by a domain.CalcType descriptor, serves every calculation
// family; the original per-table repositories collapse into this type plus
// configuration.
//
// The optional parent-design column may not exist yet on a given deployment
// (the migration adding it rolls out table by table). Presence is probed
// lazily, cached per entity tag for the process lifetime, and a statement
// that still trips over the missing column is retried once without it.
package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	postgres "github.com/mkravets/valvecalc-backend/internal/adapter/postgres"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// psql builds statements with $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides user-scoped CRUD for one calculation family.
type Repo struct {
	db   postgres.Querier
	typ  domain.CalcType
	cols *ColumnCache
}

// New creates a repository for the given calculation type. The cache is
// shared across repos so each entity tag is probed at most once.
func New(db postgres.Querier, typ domain.CalcType, cols *ColumnCache) *Repo {
	return &Repo{db: db, typ: typ, cols: cols}
}

// Type returns the descriptor this repo serves.
func (r *Repo) Type() domain.CalcType { return r.typ }

// CleanName trims the name and falls back to the type's placeholder.
func (r *Repo) CleanName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return r.typ.DefaultName
}

// ---------------------------------------------------------------------------
// Optional-column probe
// ---------------------------------------------------------------------------

// linkState resolves whether the parent-design column exists, probing once.
//
// An undefined-column answer caches absent. Any other probe failure caches
// present: assuming the column exists keeps genuine outages visible on the
// real statement instead of silently degrading. A live 42703 during
// create/update/get still downgrades the cache afterwards.
func (r *Repo) linkState(ctx context.Context) ColumnState {
	if !r.typ.HasLink() {
		return ColumnAbsent
	}
	if s := r.cols.Get(r.typ.Entity); s != ColumnUnknown {
		return s
	}

	probe := fmt.Sprintf("SELECT id, %s FROM %s LIMIT 1", r.typ.LinkColumn, r.typ.Table)
	rows, err := r.db.Query(ctx, probe)
	if err != nil {
		if postgres.IsUndefinedColumn(err) {
			r.cols.Set(r.typ.Entity, ColumnAbsent)
			return ColumnAbsent
		}
		r.cols.Set(r.typ.Entity, ColumnPresent)
		return ColumnPresent
	}
	rows.Close()
	r.cols.Set(r.typ.Entity, ColumnPresent)
	return ColumnPresent
}

// markLinkAbsent downgrades the cache after a live undefined-column failure.
func (r *Repo) markLinkAbsent() {
	r.cols.Set(r.typ.Entity, ColumnAbsent)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new record and returns its id. Name is trimmed/defaulted,
// payload stored verbatim, timestamps assigned by the database. The parent
// link is included only when the column is believed to exist AND the caller
// supplied a value; a missing column never fails the create.
func (r *Repo) Create(ctx context.Context, ownerID uuid.UUID, name string, payload map[string]any, designID *uuid.UUID) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s marshal payload: %w", r.typ.Entity, err)
	}

	id := uuid.New()
	cols := []string{"id", "owner_id", "name", "data"}
	vals := []any{id, ownerID, r.CleanName(name), data}

	withLink := designID != nil && r.linkState(ctx) == ColumnPresent
	if withLink {
		cols = append(cols, r.typ.LinkColumn)
		vals = append(vals, *designID)
	}

	execInsert := func(cols []string, vals []any) error {
		query, args, buildErr := psql.Insert(r.typ.Table).Columns(cols...).Values(vals...).ToSql()
		if buildErr != nil {
			return fmt.Errorf("build insert: %w", buildErr)
		}
		_, execErr := r.db.Exec(ctx, query, args...)
		return execErr
	}

	if err := execInsert(cols, vals); err != nil {
		if withLink && postgres.IsUndefinedColumn(err) {
			// Schema turned out to be behind the cache: degrade and retry
			// once with the link column dropped.
			r.markLinkAbsent()
			if err := execInsert(cols[:len(cols)-1], vals[:len(vals)-1]); err != nil {
				return uuid.Nil, postgres.MapError(err, r.typ.Entity, id)
			}
		} else {
			return uuid.Nil, postgres.MapError(err, r.typ.Entity, id)
		}
	}

	return id, nil
}

// Update applies the supplied fields to the record matched by id AND owner.
// Empty params are a contract no-op: storage is never touched. An applied
// update always refreshes updated_at. Returns true iff a row matched.
func (r *Repo) Update(ctx context.Context, ownerID, id uuid.UUID, params domain.CalcUpdateParams) (bool, error) {
	if params.IsEmpty() {
		return false, nil
	}

	sets := map[string]any{"updated_at": sq.Expr("now()")}
	if params.Name != nil {
		sets["name"] = r.CleanName(*params.Name)
	}
	if params.Payload != nil {
		data, err := json.Marshal(params.Payload)
		if err != nil {
			return false, fmt.Errorf("%s marshal payload: %w", r.typ.Entity, err)
		}
		sets["data"] = data
	}
	withLink := params.DesignID != nil && r.linkState(ctx) == ColumnPresent
	if withLink {
		sets[r.typ.LinkColumn] = *params.DesignID
	}

	execUpdate := func(sets map[string]any) (int64, error) {
		query, args, buildErr := psql.Update(r.typ.Table).
			SetMap(sets).
			Where(sq.Eq{"id": id, "owner_id": ownerID}).
			ToSql()
		if buildErr != nil {
			return 0, fmt.Errorf("build update: %w", buildErr)
		}
		tag, execErr := r.db.Exec(ctx, query, args...)
		if execErr != nil {
			return 0, execErr
		}
		return tag.RowsAffected(), nil
	}

	affected, err := execUpdate(sets)
	if err != nil {
		if withLink && postgres.IsUndefinedColumn(err) {
			r.markLinkAbsent()
			delete(sets, r.typ.LinkColumn)
			affected, err = execUpdate(sets)
		}
		if err != nil {
			return false, postgres.MapError(err, r.typ.Entity, id)
		}
	}

	return affected > 0, nil
}

// Delete removes the record matched by id AND owner.
// Returns true iff exactly one row was removed.
func (r *Repo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	query, args, err := psql.Delete(r.typ.Table).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, postgres.MapError(err, r.typ.Entity, id)
	}

	return tag.RowsAffected() == 1, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns the record matched by id AND owner. A record owned by
// another user is domain.ErrNotFound, indistinguishable from absence.
func (r *Repo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.CalcRecord, error) {
	selectCols := []string{"id", "owner_id", "name", "data", "created_at", "updated_at"}
	withLink := r.typ.HasLink() && r.linkState(ctx) == ColumnPresent
	if withLink {
		selectCols = append(selectCols, r.typ.LinkColumn)
	}

	row, err := r.queryOne(ctx, selectCols, sq.Eq{"id": id, "owner_id": ownerID}, withLink)
	if err != nil && withLink && postgres.IsUndefinedColumn(err) {
		r.markLinkAbsent()
		row, err = r.queryOne(ctx, selectCols[:len(selectCols)-1], sq.Eq{"id": id, "owner_id": ownerID}, false)
	}
	if err != nil {
		return nil, postgres.MapError(err, r.typ.Entity, id)
	}
	return row, nil
}

// queryOne runs a single-record select and scans it.
func (r *Repo) queryOne(ctx context.Context, cols []string, where sq.Eq, withLink bool) (*domain.CalcRecord, error) {
	query, args, err := psql.Select(cols...).From(r.typ.Table).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		rec    domain.CalcRecord
		data   []byte
		linkID pgtype.UUID
	)
	dest := []any{&rec.ID, &rec.OwnerID, &rec.Name, &data, &rec.CreatedAt, &rec.UpdatedAt}
	if withLink {
		dest = append(dest, &linkID)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Payload); err != nil {
			return nil, fmt.Errorf("%s unmarshal payload: %w", r.typ.Entity, err)
		}
	}
	if linkID.Valid {
		id := uuid.UUID(linkID.Bytes)
		rec.DesignID = &id
	}

	return &rec, nil
}

// GetName returns just the stored name, used for audit entries when the
// caller did not supply one and before deletes.
func (r *Repo) GetName(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	query, args, err := psql.Select("name").From(r.typ.Table).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var name string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&name); err != nil {
		return "", postgres.MapError(err, r.typ.Entity, id)
	}
	return name, nil
}

// List returns the owner's records, newest activity first, bounded by limit.
func (r *Repo) List(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.CalcSummary, error) {
	query, args, err := psql.Select("id", "name", "created_at", "updated_at").
		From(r.typ.Table).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("updated_at DESC", "created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.typ.Entity, err)
	}
	defer rows.Close()

	var out []domain.CalcSummary
	for rows.Next() {
		var s domain.CalcSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s summary: %w", r.typ.Entity, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.typ.Entity, err)
	}

	return out, nil
}

// ---------------------------------------------------------------------------
// Admin operations (no owner filter; callers enforce role)
// ---------------------------------------------------------------------------

// GetAny returns a record regardless of owner, for the admin library view.
func (r *Repo) GetAny(ctx context.Context, id uuid.UUID) (*domain.CalcRecord, error) {
	selectCols := []string{"id", "owner_id", "name", "data", "created_at", "updated_at"}
	withLink := r.typ.HasLink() && r.linkState(ctx) == ColumnPresent
	if withLink {
		selectCols = append(selectCols, r.typ.LinkColumn)
	}

	row, err := r.queryOne(ctx, selectCols, sq.Eq{"id": id}, withLink)
	if err != nil && withLink && postgres.IsUndefinedColumn(err) {
		r.markLinkAbsent()
		row, err = r.queryOne(ctx, selectCols[:len(selectCols)-1], sq.Eq{"id": id}, false)
	}
	if err != nil {
		return nil, postgres.MapError(err, r.typ.Entity, id)
	}
	return row, nil
}

// DeleteAny removes a record regardless of owner.
func (r *Repo) DeleteAny(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := psql.Delete(r.typ.Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, postgres.MapError(err, r.typ.Entity, id)
	}
	return tag.RowsAffected() == 1, nil
}

// GetNameAny returns the stored name regardless of owner.
func (r *Repo) GetNameAny(ctx context.Context, id uuid.UUID) (string, error) {
	query, args, err := psql.Select("name").From(r.typ.Table).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var name string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&name); err != nil {
		return "", postgres.MapError(err, r.typ.Entity, id)
	}
	return name, nil
}

// ListAll returns records across all users for the admin library view.
func (r *Repo) ListAll(ctx context.Context, filter domain.CalcAdminFilter) ([]domain.AdminCalcRow, error) {
	selectCols := []string{"id", "owner_id", "name", "data", "created_at", "updated_at"}
	withLink := r.typ.HasLink() && r.linkState(ctx) == ColumnPresent
	if withLink {
		selectCols = append(selectCols, r.typ.LinkColumn)
	}

	b := psql.Select(selectCols...).From(r.typ.Table)
	if filter.NameLike != nil && *filter.NameLike != "" {
		b = b.Where(sq.ILike{"name": "%" + *filter.NameLike + "%"})
	}
	if filter.DesignID != nil && withLink {
		b = b.Where(sq.Eq{r.typ.LinkColumn: *filter.DesignID})
	}
	if len(filter.OwnerIDs) > 0 {
		b = b.Where(sq.Eq{"owner_id": filter.OwnerIDs})
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	b = b.OrderBy("updated_at DESC", "created_at DESC").Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build admin list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		if withLink && postgres.IsUndefinedColumn(err) {
			r.markLinkAbsent()
			return r.ListAll(ctx, filter)
		}
		return nil, fmt.Errorf("admin list %s: %w", r.typ.Entity, err)
	}
	defer rows.Close()

	return scanAdminRows(rows, r.typ.Entity, withLink)
}

func scanAdminRows(rows pgx.Rows, entity string, withLink bool) ([]domain.AdminCalcRow, error) {
	var out []domain.AdminCalcRow
	for rows.Next() {
		var (
			row    domain.AdminCalcRow
			data   []byte
			linkID pgtype.UUID
		)
		dest := []any{&row.ID, &row.OwnerID, &row.Name, &data, &row.CreatedAt, &row.UpdatedAt}
		if withLink {
			dest = append(dest, &linkID)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan admin %s row: %w", entity, err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &row.Payload); err != nil {
				return nil, fmt.Errorf("admin %s unmarshal payload: %w", entity, err)
			}
		}
		if linkID.Valid {
			id := uuid.UUID(linkID.Bytes)
			row.DesignID = &id
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("admin list %s: %w", entity, err)
	}
	return out, nil
}
