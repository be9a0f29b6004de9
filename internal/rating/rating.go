package rating

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidStar = errors.New("rating must be between 1 and 5")
)

const (
	MinStar = 1
	MaxStar = 5
)

type Rating struct {
	UserID  string `json:"user_id"`
	AlbumID int64  `json:"album_id"`
	Star    int    `json:"star"`
}

// Summary aggregates every user's rating of one album or by one user.
type Summary struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"ratings_count"`
}

//go:generate mockgen -destination=mock_repository.go -package=rating musicapi/internal/rating Repository

type Repository interface {
	Upsert(ctx context.Context, r Rating) error
	GetUserRating(ctx context.Context, userID string, albumID int64) (int, error)
	GetAlbumSummary(ctx context.Context, albumID int64) (Summary, error)
	GetUserSummary(ctx context.Context, userID string) (Summary, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Rate records userID's star rating of a persisted album, replacing any
// earlier rating by the same user.
func (s *Service) Rate(ctx context.Context, userID string, albumID int64, star int) error {
	if star < MinStar || star > MaxStar {
		return fmt.Errorf("%w: got %d", ErrInvalidStar, star)
	}
	return s.repo.Upsert(ctx, Rating{UserID: userID, AlbumID: albumID, Star: star})
}

func (s *Service) GetUserRating(ctx context.Context, userID string, albumID int64) (int, error) {
	return s.repo.GetUserRating(ctx, userID, albumID)
}

func (s *Service) GetAlbumSummary(ctx context.Context, albumID int64) (Summary, error) {
	return s.repo.GetAlbumSummary(ctx, albumID)
}

func (s *Service) GetUserSummary(ctx context.Context, userID string) (Summary, error) {
	return s.repo.GetUserSummary(ctx, userID)
}
