package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BlacklistPostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewBlacklistPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *BlacklistPostgresRepo {
	return &BlacklistPostgresRepo{db: db, timeout: timeout}
}

func (r *BlacklistPostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// AddToken revokes jti. Revoking the same token twice is a no-op.
func (r *BlacklistPostgresRepo) AddToken(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	const query = `
	INSERT INTO token_blacklist (jti, user_id, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(timeoutCtx, query, jti, userID, expiresAt)
	return err
}

// IsBlacklisted ignores entries whose token has already expired.
func (r *BlacklistPostgresRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const query = `
	SELECT EXISTS(
		SELECT 1 FROM token_blacklist
		WHERE jti = $1 AND expires_at > now()
	)
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(timeoutCtx, query, jti).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CleanupExpired deletes entries for tokens that can no longer be presented.
func (r *BlacklistPostgresRepo) CleanupExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM token_blacklist WHERE expires_at < now()`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
