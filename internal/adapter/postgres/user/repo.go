// Package user implements the User repository using PostgreSQL.
package user

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/mkravets/valvecalc-backend/internal/adapter/postgres"
	"github.com/mkravets/valvecalc-backend/internal/domain"
)

const table = "users"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new user repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByUsername returns a user by username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username}, uuid.Nil)
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq, id uuid.UUID) (*domain.User, error) {
	query, args, err := psql.Select("id", "username", "role", "password_hash", "created_at").
		From(table).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var u domain.User
	if err := r.db.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return &u, nil
}

// Create inserts a new user.
func (r *Repo) Create(ctx context.Context, u *domain.User) error {
	query, args, err := psql.Insert(table).
		Columns("id", "username", "role", "password_hash").
		Values(u.ID, u.Username, u.Role, u.PasswordHash).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "user", u.ID)
	}
	return nil
}

// FindIDsByUsernameLike resolves user ids whose username matches
// ILIKE '%needle%'. Used by the admin library's username filter.
func (r *Repo) FindIDsByUsernameLike(ctx context.Context, needle string) ([]uuid.UUID, error) {
	query, args, err := psql.Select("id").
		From(table).
		Where(sq.ILike{"username": "%" + needle + "%"}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users by username: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find users by username: %w", err)
	}

	return ids, nil
}

// UsernamesByIDs returns a username lookup map for the given ids.
func (r *Repo) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	query, args, err := psql.Select("id", "username").
		From(table).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usernames by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var (
			id       uuid.UUID
			username string
		)
		if err := rows.Scan(&id, &username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		out[id] = username
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usernames by ids: %w", err)
	}

	return out, nil
}
