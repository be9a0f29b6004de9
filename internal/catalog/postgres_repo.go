package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// InTx acquires one pooled connection for the lifetime of fn. The deferred
// rollback releases the connection on every exit path, including panics.
// The whole transaction, statements included, runs under the repo timeout.
func (r *PostgresRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(timeoutCtx) //nolint:errcheck // no-op after commit

	if err := fn(timeoutCtx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(timeoutCtx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

// ON CONFLICT DO NOTHING blocks on a concurrent uncommitted insert of the same
// key and then skips, so the id is guaranteed to reference a committed or
// own-transaction row when these return without error.

func (t *pgTx) EnsureAuthor(ctx context.Context, a Author) (int64, error) {
	const sql = `
		INSERT INTO author (author_id, author_name)
		VALUES ($1, $2)
		ON CONFLICT (author_id) DO NOTHING`
	if _, err := t.tx.Exec(ctx, sql, a.ID, a.Name); err != nil {
		return 0, fmt.Errorf("ensure author %d: %w", a.ID, err)
	}
	return a.ID, nil
}

func (t *pgTx) EnsureGenre(ctx context.Context, g Genre) (int64, error) {
	const sql = `
		INSERT INTO genre (genre_id, genre_name)
		VALUES ($1, $2)
		ON CONFLICT (genre_id) DO NOTHING`
	if _, err := t.tx.Exec(ctx, sql, g.ID, g.Name); err != nil {
		return 0, fmt.Errorf("ensure genre %d: %w", g.ID, err)
	}
	return g.ID, nil
}

func (t *pgTx) InsertAlbum(ctx context.Context, a Album) (bool, error) {
	const sql = `
		INSERT INTO album (album_id, author_id, genre_id, album_name, album_rating, release_date, cover_url)
		VALUES ($1, $2, $3, $4, NULL, $5, NULLIF($6, ''))
		ON CONFLICT (album_id) DO NOTHING`
	tag, err := t.tx.Exec(ctx, sql, a.ID, a.AuthorID, a.GenreID, a.Title, a.ReleaseDate, a.CoverURL)
	if err != nil {
		return false, fmt.Errorf("insert album %d: %w", a.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) InsertSong(ctx context.Context, s Song) (bool, error) {
	const sql = `
		INSERT INTO song (song_id, author_id, album_id, song_name, song_num, duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (song_id) DO NOTHING`
	tag, err := t.tx.Exec(ctx, sql, s.ID, s.AuthorID, s.AlbumID, s.Title, s.Number, s.Duration)
	if err != nil {
		return false, fmt.Errorf("insert song %d: %w", s.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) GetAlbum(ctx context.Context, albumID int64) (Album, error) {
	const albumSQL = `
		SELECT al.album_id, al.author_id, au.author_name, al.genre_id, g.genre_name,
		       al.album_name, al.album_rating, al.release_date, COALESCE(al.cover_url, ''), al.created_at
		FROM album al
		JOIN author au ON au.author_id = al.author_id
		JOIN genre g ON g.genre_id = al.genre_id
		WHERE al.album_id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a Album
	err := r.db.QueryRow(timeoutCtx, albumSQL, albumID).Scan(
		&a.ID, &a.AuthorID, &a.AuthorName, &a.GenreID, &a.GenreName,
		&a.Title, &a.Rating, &a.ReleaseDate, &a.CoverURL, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Album{}, ErrNotFound
		}
		return Album{}, err
	}

	const songSQL = `
		SELECT song_id, author_id, album_id, song_name, song_num, duration
		FROM song
		WHERE album_id = $1
		ORDER BY song_num ASC, song_id ASC`
	rows, err := r.db.Query(timeoutCtx, songSQL, albumID)
	if err != nil {
		return Album{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var s Song
		if err := rows.Scan(&s.ID, &s.AuthorID, &s.AlbumID, &s.Title, &s.Number, &s.Duration); err != nil {
			return Album{}, err
		}
		a.Songs = append(a.Songs, s)
	}
	return a, rows.Err()
}

func (r *PostgresRepo) ListAlbums(ctx context.Context, q ListQuery) ([]Album, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.AuthorID != nil {
		clauses = append(clauses, fmt.Sprintf("al.author_id = $%d", argn))
		args = append(args, *q.AuthorID)
		argn++
	}

	if q.GenreID != nil {
		clauses = append(clauses, fmt.Sprintf("al.genre_id = $%d", argn))
		args = append(args, *q.GenreID)
		argn++
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(al.album_name ILIKE $%d OR au.author_name ILIKE $%d)", argn, argn))
		args = append(args, "%"+q.Q+"%")
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM album al JOIN author au ON au.author_id = al.author_id %s", where)
	var total int
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT al.album_id, al.author_id, au.author_name, al.genre_id, g.genre_name,
		       al.album_name, al.album_rating, al.release_date, COALESCE(al.cover_url, ''), al.created_at
		FROM album al
		JOIN author au ON au.author_id = al.author_id
		JOIN genre g ON g.genre_id = al.genre_id
		%s
		ORDER BY al.album_name ASC, al.album_id ASC
		LIMIT $%d OFFSET $%d`,
		where, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, q.Limit, q.Offset)
	rows, err := r.db.Query(timeoutCtx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(
			&a.ID, &a.AuthorID, &a.AuthorName, &a.GenreID, &a.GenreName,
			&a.Title, &a.Rating, &a.ReleaseDate, &a.CoverURL, &a.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
