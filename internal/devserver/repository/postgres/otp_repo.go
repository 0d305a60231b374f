package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketing-front/internal/devserver/repository"
)

// OTPRepository keeps one row per email; storing a code replaces it.
type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

func (r *OTPRepository) Store(ctx context.Context, code repository.OTPCode) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO otp_codes (email, code, expires_at, consumed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE
		 SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, consumed_at = EXCLUDED.consumed_at`,
		strings.ToLower(strings.TrimSpace(code.Email)), code.Code, code.ExpiresAt, code.ConsumedAt)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// ConsumeLatest locks the row for the duration of check so concurrent
// redemptions of one code serialize.
func (r *OTPRepository) ConsumeLatest(ctx context.Context, email string, now time.Time, check func(repository.OTPCode) error) error {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin otp transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var code repository.OTPCode
	err = tx.QueryRow(ctx,
		`SELECT email, code, expires_at, consumed_at FROM otp_codes WHERE email = $1 FOR UPDATE`,
		email).Scan(&code.Email, &code.Code, &code.ExpiresAt, &code.ConsumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	if err := check(code); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE otp_codes SET consumed_at = $2 WHERE email = $1`, email, now); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) CleanExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM otp_codes WHERE consumed_at IS NOT NULL OR expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean expired otps: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
