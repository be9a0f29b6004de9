package catalog

import (
	"context"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams is a browse request in page terms. Out-of-range values fall
// back to the first page and the default page size.
type ListParams struct {
	Q        string
	AuthorID *int64
	GenreID  *int64
	Page     int
	PageSize int
}

type AlbumPage struct {
	Albums     []Album
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetAlbum(ctx context.Context, albumID int64) (Album, error) {
	return s.repo.GetAlbum(ctx, albumID)
}

func (s *Service) ListAlbums(ctx context.Context, p ListParams) (AlbumPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}

	albums, total, err := s.repo.ListAlbums(ctx, ListQuery{
		AuthorID: p.AuthorID,
		GenreID:  p.GenreID,
		Q:        p.Q,
		Limit:    p.PageSize,
		Offset:   (p.Page - 1) * p.PageSize,
	})
	if err != nil {
		return AlbumPage{}, err
	}
	if albums == nil {
		albums = []Album{}
	}
	return AlbumPage{
		Albums:     albums,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: (total + p.PageSize - 1) / p.PageSize,
	}, nil
}
