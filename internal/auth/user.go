package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("username already exists")
	ErrNotFound      = errors.New("user not found")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

//go:generate mockgen -destination=mock_repository.go -package=auth musicapi/internal/auth Repository

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

//go:generate mockgen -destination=mock_blacklist_repository.go -package=auth musicapi/internal/auth BlacklistRepository

// BlacklistRepository stores revoked token ids until the token would have
// expired anyway.
type BlacklistRepository interface {
	AddToken(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}
