package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasklight/internal/domain"
)

// IdentityRepository define el contrato de persistencia para identidades.
type IdentityRepository interface {
	GetByID(ctx context.Context, id string) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)
	CreateOrUpdate(ctx context.Context, email, displayName string) (domain.Identity, error)
	MarkAuthenticated(ctx context.Context, id string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// PgIdentityRepository implementa IdentityRepository usando pgxpool.
type PgIdentityRepository struct {
	pool *pgxpool.Pool
}

func NewPgIdentityRepository(pool *pgxpool.Pool) *PgIdentityRepository {
	return &PgIdentityRepository{pool: pool}
}

func (r *PgIdentityRepository) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	const query = `
		SELECT id, email, display_name, created_at, last_login_at
		FROM users
		WHERE id = $1 AND NOT is_deleted
	`
	var ident domain.Identity
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&ident.CreatedAt,
		&ident.LastLoginAt,
	)
	return ident, err
}

func (r *PgIdentityRepository) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	const query = `
		SELECT id, email, display_name, created_at, last_login_at
		FROM users
		WHERE email = $1 AND NOT is_deleted
	`
	var ident domain.Identity
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&ident.CreatedAt,
		&ident.LastLoginAt,
	)
	return ident, err
}

// CreateOrUpdate inserts the identity for the email or, if one already exists,
// updates its display name when a non-empty one is provided. The partial
// unique index on non-deleted emails makes this race-safe across concurrent
// logins for the same address.
func (r *PgIdentityRepository) CreateOrUpdate(ctx context.Context, email, displayName string) (domain.Identity, error) {
	const query = `
		INSERT INTO users (id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) WHERE NOT is_deleted DO UPDATE
		SET display_name = CASE
			WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
			ELSE users.display_name
		END
		RETURNING id, email, display_name, created_at, last_login_at
	`
	var ident domain.Identity
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		email,
		displayName,
		time.Now().UTC(),
	).Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&ident.CreatedAt,
		&ident.LastLoginAt,
	)
	return ident, err
}

func (r *PgIdentityRepository) MarkAuthenticated(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE users SET last_login_at = $2
		WHERE id = $1 AND NOT is_deleted
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *PgIdentityRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE users SET is_deleted = true, deleted_at = $2
		WHERE id = $1 AND NOT is_deleted
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}
