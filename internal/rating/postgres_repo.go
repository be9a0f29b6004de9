package rating

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (repo *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if repo.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, repo.timeout)
}

// Upsert maps a missing album or user to ErrNotFound through the foreign keys.
func (repo *PostgresRepo) Upsert(ctx context.Context, r Rating) error {
	const upsertSQL = `
		INSERT INTO album_ratings (user_id, album_id, star, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, album_id)
		DO UPDATE SET star = excluded.star, updated_at = now()`

	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()

	if _, err := repo.db.Exec(timeoutCtx, upsertSQL, r.UserID, r.AlbumID, r.Star); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (repo *PostgresRepo) GetUserRating(ctx context.Context, userID string, albumID int64) (int, error) {
	const query = `
		SELECT star
		FROM album_ratings
		WHERE user_id = $1 AND album_id = $2`

	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()

	var star int
	if err := repo.db.QueryRow(timeoutCtx, query, userID, albumID).Scan(&star); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return star, nil
}

func (repo *PostgresRepo) GetAlbumSummary(ctx context.Context, albumID int64) (Summary, error) {
	const query = `
		SELECT AVG(star)::FLOAT, COUNT(star)
		FROM album_ratings
		WHERE album_id = $1`
	return repo.summary(ctx, query, albumID)
}

func (repo *PostgresRepo) GetUserSummary(ctx context.Context, userID string) (Summary, error) {
	const query = `
		SELECT AVG(star)::FLOAT, COUNT(star)
		FROM album_ratings
		WHERE user_id = $1`
	return repo.summary(ctx, query, userID)
}

func (repo *PostgresRepo) summary(ctx context.Context, query string, arg any) (Summary, error) {
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()

	var average sql.NullFloat64
	var count int
	if err := repo.db.QueryRow(timeoutCtx, query, arg).Scan(&average, &count); err != nil {
		return Summary{}, err
	}
	if !average.Valid {
		return Summary{}, nil
	}
	return Summary{Average: average.Float64, Count: count}, nil
}
