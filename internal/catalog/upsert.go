package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const releaseDateLayout = "2006-01-02"

// Engine materializes album records into author, genre, album and song rows.
// Existing rows are never updated: the first complete write of an album wins.
type Engine struct {
	store  TxRunner
	logger *zap.Logger

	// Coalesces concurrent upserts of the same album within this process.
	group singleflight.Group
	// Album ids confirmed persisted. Safe to short-circuit on because a
	// persisted album is never modified by an upsert.
	known *expirable.LRU[int64, struct{}]
}

type EngineOption func(*engineOptions)

type engineOptions struct {
	knownSize int
	knownTTL  time.Duration
}

// WithKnownAlbums sizes the in-memory set of album ids already persisted.
// A size of 0 disables it.
func WithKnownAlbums(size int, ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.knownSize = size
		o.knownTTL = ttl
	}
}

func NewEngine(store TxRunner, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := engineOptions{knownSize: 4096, knownTTL: 30 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		store:  store,
		logger: logger.Named("catalog"),
	}
	if o.knownSize > 0 {
		e.known = expirable.NewLRU[int64, struct{}](o.knownSize, nil, o.knownTTL)
	}
	return e
}

// UpsertAlbum persists rec and returns the canonical album id. All writes
// happen in one transaction; on any error nothing is kept and the error is
// returned to the caller.
func (e *Engine) UpsertAlbum(ctx context.Context, rec AlbumRecord) (int64, error) {
	rows, err := normalize(rec)
	if err != nil {
		upsertFailuresTotal.Inc()
		e.logger.Warn("rejecting album record",
			zap.String("album_id", rec.ID),
			zap.String("title", rec.Title),
			zap.Error(err))
		return 0, err
	}

	albumID := rows.album.ID
	if e.known != nil && e.known.Contains(albumID) {
		return albumID, nil
	}

	v, err, _ := e.group.Do(strconv.FormatInt(albumID, 10), func() (any, error) {
		return e.upsert(ctx, rows)
	})
	if err != nil {
		upsertFailuresTotal.Inc()
		e.logger.Error("album upsert failed",
			zap.Int64("album_id", albumID),
			zap.Int64("author_id", rows.author.ID),
			zap.Int64("genre_id", rows.genre.ID),
			zap.String("title", rows.album.Title),
			zap.Int("tracks", len(rows.songs)),
			zap.Error(err))
		return 0, err
	}

	if e.known != nil {
		e.known.Add(albumID, struct{}{})
	}
	return v.(int64), nil
}

func (e *Engine) upsert(ctx context.Context, rows normalized) (albumID int64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("upsert album %d: panic: %v", rows.album.ID, p)
		}
	}()

	var inserted bool
	var songsInserted int
	err = e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		authorID, err := tx.EnsureAuthor(ctx, rows.author)
		if err != nil {
			return err
		}
		genreID, err := tx.EnsureGenre(ctx, rows.genre)
		if err != nil {
			return err
		}

		album := rows.album
		album.AuthorID = authorID
		album.GenreID = genreID
		inserted, err = tx.InsertAlbum(ctx, album)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		for _, s := range rows.songs {
			s.AuthorID = authorID
			s.AlbumID = album.ID
			ok, err := tx.InsertSong(ctx, s)
			if err != nil {
				return err
			}
			if ok {
				songsInserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted {
		albumsInsertedTotal.Inc()
		e.logger.Info("album saved",
			zap.Int64("album_id", rows.album.ID),
			zap.String("title", rows.album.Title),
			zap.Int("songs", songsInserted))
	} else {
		e.logger.Debug("album already exists", zap.Int64("album_id", rows.album.ID))
	}
	return rows.album.ID, nil
}

type normalized struct {
	author Author
	genre  Genre
	album  Album
	songs  []Song
}

func normalize(rec AlbumRecord) (normalized, error) {
	albumID, err := parseID(rec.ID)
	if err != nil {
		return normalized{}, fmt.Errorf("%w: album id %q", ErrMalformedRecord, rec.ID)
	}
	artistID, err := parseID(rec.ArtistID)
	if err != nil {
		return normalized{}, fmt.Errorf("%w: artist id %q", ErrMalformedRecord, rec.ArtistID)
	}
	if strings.TrimSpace(rec.Title) == "" {
		return normalized{}, fmt.Errorf("%w: album %d has no title", ErrMalformedRecord, albumID)
	}

	// Genres are never renamed once stored, so an id without its name is
	// filed under the sentinel instead of creating a mislabeled row.
	genre := Genre{ID: UnknownGenreID, Name: UnknownGenreName}
	if rec.GenreID > 0 && strings.TrimSpace(rec.GenreName) != "" {
		genre = Genre{ID: rec.GenreID, Name: rec.GenreName}
	}

	out := normalized{
		author: Author{ID: artistID, Name: rec.ArtistName},
		genre:  genre,
		album: Album{
			ID:          albumID,
			Title:       rec.Title,
			ReleaseDate: parseReleaseDate(rec.ReleaseDate),
			CoverURL:    rec.CoverURL,
		},
	}

	for _, t := range rec.Tracks {
		trackID, err := parseID(t.ID)
		if err != nil {
			return normalized{}, fmt.Errorf("%w: track id %q on album %d", ErrMalformedRecord, t.ID, albumID)
		}
		out.songs = append(out.songs, Song{
			ID:       trackID,
			Title:    t.Title,
			Number:   t.Position,
			Duration: t.Duration,
		})
	}
	return out, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("negative id %d", id)
	}
	return id, nil
}

// The catalog reports unknown dates as "0000-00-00"; those and anything
// unparseable are stored as NULL.
func parseReleaseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(releaseDateLayout, strings.TrimSpace(*s))
	if err != nil || t.Year() < 1 {
		return nil
	}
	return &t
}
