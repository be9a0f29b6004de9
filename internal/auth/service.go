package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"musicapi/internal/platform/crypto"
)

const DefaultTokenTTL = 24 * time.Hour

type Service struct {
	repo      Repository
	blacklist BlacklistRepository
	secret    string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewService(repo Repository, blacklist BlacklistRepository, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		blacklist: blacklist,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger.Named("auth"),
	}
}

// Register stores a new user with a bcrypt hash of password. Password
// strength failures are returned as-is so handlers can report them.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	if err := crypto.ValidatePasswordStrength(password); err != nil {
		return User{}, err
	}
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Username: username, Password: hashed}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return *u, nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, int, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", 0, ErrUnauthorized
		}
		return "", 0, err
	}
	if !crypto.VerifyPassword(u.Password, password) {
		return "", 0, ErrUnauthorized
	}

	token, _, err := crypto.GenerateToken(s.secret, u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return token, int(s.tokenTTL.Seconds()), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Logout revokes the token identified by jti until expiresAt. A zero
// expiresAt falls back to the longest lifetime a token can have.
func (s *Service) Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrUnauthorized
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.tokenTTL)
	}
	if err := s.blacklist.AddToken(ctx, jti, userID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// RunBlacklistCleanup purges expired revocations every interval until ctx
// is cancelled.
func (s *Service) RunBlacklistCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupBlacklist(ctx)
		}
	}
}

func (s *Service) cleanupBlacklist(ctx context.Context) {
	n, err := s.blacklist.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("token blacklist cleanup failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.logger.Debug("token blacklist cleaned", zap.Int64("removed", n))
	}
}
