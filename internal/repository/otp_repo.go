package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tasklight/internal/domain"
)

// OTPRepository define el contrato de persistencia para codigos de un solo uso.
type OTPRepository interface {
	Replace(ctx context.Context, code domain.OneTimeCode) error
	ConsumeMatching(ctx context.Context, email, code string, now time.Time) (domain.OneTimeCode, error)
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

// Replace invalidates every prior code for the email and inserts the new one.
// Both statements run in one transaction so two concurrent issuances cannot
// leave two active codes for the same email.
func (r *PgOTPRepository) Replace(ctx context.Context, code domain.OneTimeCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM otp_codes WHERE email = $1`, code.Email); err != nil {
		return err
	}

	const insert = `
		INSERT INTO otp_codes (id, user_id, email, code, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
	`
	if _, err := tx.Exec(ctx, insert,
		code.ID,
		code.UserID,
		code.Email,
		code.Code,
		code.ExpiresAt,
		code.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ConsumeMatching marks the newest unused, unexpired code matching the
// submitted value as used and returns it. The outer NOT is_used recheck
// makes the used=false -> used=true transition happen exactly once even
// under concurrent verifies; losers get pgx.ErrNoRows.
func (r *PgOTPRepository) ConsumeMatching(ctx context.Context, email, code string, now time.Time) (domain.OneTimeCode, error) {
	const query = `
		UPDATE otp_codes SET is_used = true
		WHERE id = (
			SELECT id FROM otp_codes
			WHERE email = $1 AND code = $2 AND NOT is_used AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
		) AND NOT is_used
		RETURNING id, user_id, email, code, expires_at, is_used, created_at
	`
	var otp domain.OneTimeCode
	err := r.pool.QueryRow(ctx, query, email, code, now).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.CreatedAt,
	)
	return otp, err
}
