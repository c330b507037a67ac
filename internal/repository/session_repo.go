package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tasklight/internal/domain"
)

// SessionRepository define el contrato de persistencia para sesiones.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByToken(ctx context.Context, token string, now time.Time) (domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO user_sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

// GetByToken returns the session only while it is unexpired; expired rows are
// left in place and filtered out here (lazy expiry, no sweeper).
func (r *PgSessionRepository) GetByToken(ctx context.Context, token string, now time.Time) (domain.Session, error) {
	const query = `
		SELECT id, user_id, token, expires_at, created_at
		FROM user_sessions
		WHERE token = $1 AND expires_at > $2
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, token, now).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	return session, err
}

// DeleteByToken is idempotent: deleting an absent token is not an error.
func (r *PgSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE token = $1`, token)
	return err
}
