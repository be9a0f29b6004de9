// Package ingest turns catalog searches into cached album stubs and turns a
// selected stub into a complete, persisted album.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"musicapi/internal/catalog"
	"musicapi/internal/platform/deezer"
	"musicapi/internal/searchcache"
)

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50
)

var (
	ErrEmptyQuery         = errors.New("search query is required")
	ErrNotInCache         = errors.New("album not found in recent search results")
	ErrCatalogUnavailable = errors.New("music catalog unavailable")
)

type CatalogClient interface {
	SearchAlbums(ctx context.Context, query string, page, limit int) (*deezer.SearchResponse, error)
	GetAlbumTracks(ctx context.Context, albumID string) ([]deezer.Track, error)
	GetAlbum(ctx context.Context, albumID string) (*deezer.AlbumDetails, error)
}

type Cache interface {
	Put(fingerprint string, stubs []catalog.AlbumRecord)
	FindByExternalID(ctx context.Context, albumID string) (catalog.AlbumRecord, bool)
}

type Persister interface {
	UpsertAlbum(ctx context.Context, rec catalog.AlbumRecord) (int64, error)
}

type SearchQuery struct {
	Q     string `validate:"required"`
	Page  int    `validate:"min=1"`
	Limit int    `validate:"min=1,max=50"`
}

// AlbumSummary is the display subset of a stub returned to search clients.
type AlbumSummary struct {
	ID         string `json:"deezer_id"`
	Title      string `json:"title"`
	ArtistName string `json:"artist_name"`
	CoverURL   string `json:"cover_url"`
}

type SearchResult struct {
	Query   string         `json:"query"`
	Page    int            `json:"page"`
	Total   int            `json:"total"`
	Results []AlbumSummary `json:"results"`
}

type Service struct {
	client    CatalogClient
	cache     Cache
	persister Persister
	logger    *zap.Logger
}

func NewService(client CatalogClient, cache Cache, persister Persister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:    client,
		cache:     cache,
		persister: persister,
		logger:    logger.Named("ingest"),
	}
}

// Search queries the catalog and caches the full stubs under the search
// fingerprint. A catalog failure yields an empty result rather than an error.
func (s *Service) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	query := strings.TrimSpace(q.Q)
	if query == "" {
		return SearchResult{}, ErrEmptyQuery
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > MaxSearchLimit {
		q.Limit = DefaultSearchLimit
	}

	res, err := s.client.SearchAlbums(ctx, query, q.Page, q.Limit)
	if err != nil {
		s.logger.Warn("catalog search failed, returning empty result",
			zap.String("query", query),
			zap.Int("page", q.Page),
			zap.Error(err))
		res = &deezer.SearchResponse{}
	}

	stubs := make([]catalog.AlbumRecord, 0, len(res.Data))
	summaries := make([]AlbumSummary, 0, len(res.Data))
	for _, a := range res.Data {
		stub := stubFromSearch(a)
		stubs = append(stubs, stub)
		summaries = append(summaries, AlbumSummary{
			ID:         stub.ID,
			Title:      stub.Title,
			ArtistName: stub.ArtistName,
			CoverURL:   stub.CoverURL,
		})
	}
	s.cache.Put(searchcache.Fingerprint(query, q.Page), stubs)

	return SearchResult{
		Query:   query,
		Page:    q.Page,
		Total:   res.Total,
		Results: summaries,
	}, nil
}

// Select completes a cached stub with its tracklist and detail, persists it,
// and returns the merged record. Persistence failures are logged only.
func (s *Service) Select(ctx context.Context, albumID string) (catalog.AlbumRecord, error) {
	rec, ok := s.cache.FindByExternalID(ctx, albumID)
	if !ok {
		return catalog.AlbumRecord{}, ErrNotInCache
	}

	var (
		tracks  []deezer.Track
		details *deezer.AlbumDetails
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tracks, err = s.client.GetAlbumTracks(gctx, albumID)
		if err != nil {
			return fmt.Errorf("%w: fetch tracks for album %s: %w", ErrCatalogUnavailable, albumID, err)
		}
		return nil
	})
	g.Go(func() error {
		d, err := s.client.GetAlbum(gctx, albumID)
		if err != nil {
			s.logger.Warn("album detail unavailable, keeping search data",
				zap.String("album_id", albumID),
				zap.Error(err))
			return nil
		}
		details = d
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("album select failed", zap.String("album_id", albumID), zap.Error(err))
		return catalog.AlbumRecord{}, err
	}

	rec = merge(rec, tracks, details)

	if _, err := s.persister.UpsertAlbum(ctx, rec); err != nil {
		s.logger.Error("failed to persist selected album",
			zap.String("album_id", rec.ID),
			zap.String("title", rec.Title),
			zap.Int("tracks", len(rec.Tracks)),
			zap.Error(err))
	}
	return rec, nil
}

func stubFromSearch(a deezer.Album) catalog.AlbumRecord {
	stub := catalog.AlbumRecord{
		ID:         strconv.FormatInt(a.ID, 10),
		Title:      a.Title,
		ArtistName: a.Artist.Name,
		ArtistID:   strconv.FormatInt(a.Artist.ID, 10),
		CoverURL:   a.CoverMedium,
		GenreID:    a.GenreID,
	}
	if a.ReleaseDate != "" {
		d := a.ReleaseDate
		stub.ReleaseDate = &d
	}
	return stub
}

func merge(rec catalog.AlbumRecord, tracks []deezer.Track, details *deezer.AlbumDetails) catalog.AlbumRecord {
	rec.Tracks = make([]catalog.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		rec.Tracks = append(rec.Tracks, catalog.TrackRecord{
			ID:       strconv.FormatInt(t.ID, 10),
			Title:    t.Title,
			Duration: t.Duration,
			Position: t.TrackPosition,
		})
	}

	if details == nil {
		return rec
	}
	if rec.ReleaseDate == nil && details.ReleaseDate != "" {
		d := details.ReleaseDate
		rec.ReleaseDate = &d
	}
	if id, name := details.PrimaryGenre(); id > 0 {
		rec.GenreID = id
		rec.GenreName = name
	}
	if rec.CoverURL == "" {
		rec.CoverURL = details.CoverMedium
	}
	return rec
}
