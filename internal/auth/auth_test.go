package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicapi/internal/httpx"
	"musicapi/internal/platform/crypto"
)

const testSecret = "test-secret-key"

func newTestService(t *testing.T) (*Service, *MockRepository) {
	t.Helper()
	svc, repo, _ := newTestServiceWithBlacklist(t)
	return svc, repo
}

func newTestServiceWithBlacklist(t *testing.T) (*Service, *MockRepository, *MockBlacklistRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	blacklist := NewMockBlacklistRepository(ctrl)
	return NewService(repo, blacklist, testSecret, time.Hour, zap.NewNop()), repo, blacklist
}

func TestService_Register(t *testing.T) {
	t.Run("hashes the password", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *User) error {
			assert.Equal(t, "alice", u.Username)
			assert.NotEqual(t, "password123", u.Password)
			assert.True(t, crypto.VerifyPassword(u.Password, "password123"))
			u.ID = "user-1"
			return nil
		})

		u, err := svc.Register(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, "user-1", u.ID)
	})

	t.Run("weak password never reaches the store", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Register(context.Background(), "alice", "short")
		assert.ErrorIs(t, err, crypto.ErrPasswordTooShort)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrAlreadyExists)

		_, err := svc.Register(context.Background(), "alice", "password123")
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestService_Login(t *testing.T) {
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	alice := User{ID: "user-1", Username: "alice", Password: hash}

	t.Run("valid credentials", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(alice, nil)

		token, expiresIn, err := svc.Login(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, 3600, expiresIn)

		claims, err := crypto.ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Sub)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(alice, nil)

		_, _, err := svc.Login(context.Background(), "alice", "wrong-pass1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().GetByUsername(gomock.Any(), "bob").Return(User{}, ErrNotFound)

		_, _, err := svc.Login(context.Background(), "bob", "password123")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("store failure is not unauthorized", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(User{}, errors.New("db down"))

		_, _, err := svc.Login(context.Background(), "alice", "password123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}

func TestHTTPHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		setupMock      func(repo *MockRepository)
		expectedStatus int
	}{
		{
			name: "created",
			body: map[string]string{"username": "alice", "password": "password123"},
			setupMock: func(repo *MockRepository) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "conflict",
			body: map[string]string{"username": "alice", "password": "password123"},
			setupMock: func(repo *MockRepository) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrAlreadyExists)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "username too short",
			body:           map[string]string{"username": "al", "password": "password123"},
			setupMock:      func(repo *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "weak password",
			body:           map[string]string{"username": "alice", "password": "onlyletters"},
			setupMock:      func(repo *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			tt.setupMock(repo)
			h := NewHTTPHandler(svc)

			body, _ := json.Marshal(tt.body)
			r := httptest.NewRequest(http.MethodPost, "/v1/users/register", bytes.NewReader(body))
			w := httptest.NewRecorder()

			h.Register(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHTTPHandler_Login(t *testing.T) {
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)

	svc, repo := newTestService(t)
	repo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(User{ID: "user-1", Username: "alice", Password: hash}, nil).Times(2)
	h := NewHTTPHandler(svc)

	t.Run("success", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/users/login", bytes.NewBufferString(`{"username":"alice","password":"password123"}`))
		w := httptest.NewRecorder()

		h.Login(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("wrong password", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/users/login", bytes.NewBufferString(`{"username":"alice","password":"nope12345"}`))
		w := httptest.NewRecorder()

		h.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_Me(t *testing.T) {
	svc, repo := newTestService(t)
	repo.EXPECT().GetByID(gomock.Any(), "user-1").Return(User{ID: "user-1", Username: "alice", Password: "hash"}, nil)
	h := NewHTTPHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	r = r.WithContext(httpx.ContextWithUser(r.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.Me(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "hash")
}

func TestService_Logout(t *testing.T) {
	expiresAt := time.Now().Add(30 * time.Minute)

	t.Run("revokes until the token expires", func(t *testing.T) {
		svc, _, blacklist := newTestServiceWithBlacklist(t)
		blacklist.EXPECT().AddToken(gomock.Any(), "jti-1", "user-1", expiresAt).Return(nil)

		require.NoError(t, svc.Logout(context.Background(), "user-1", "jti-1", expiresAt))
	})

	t.Run("missing expiry uses the token lifetime", func(t *testing.T) {
		svc, _, blacklist := newTestServiceWithBlacklist(t)
		blacklist.EXPECT().AddToken(gomock.Any(), "jti-1", "user-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, at time.Time) error {
				assert.WithinDuration(t, time.Now().Add(time.Hour), at, time.Minute)
				return nil
			})

		require.NoError(t, svc.Logout(context.Background(), "user-1", "jti-1", time.Time{}))
	})

	t.Run("token without id", func(t *testing.T) {
		svc, _, _ := newTestServiceWithBlacklist(t)

		err := svc.Logout(context.Background(), "user-1", "", expiresAt)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("store error", func(t *testing.T) {
		svc, _, blacklist := newTestServiceWithBlacklist(t)
		blacklist.EXPECT().AddToken(gomock.Any(), "jti-1", "user-1", expiresAt).Return(errors.New("db down"))

		assert.Error(t, svc.Logout(context.Background(), "user-1", "jti-1", expiresAt))
	})
}

func TestService_RunBlacklistCleanup(t *testing.T) {
	svc, _, blacklist := newTestServiceWithBlacklist(t)
	ctx, cancel := context.WithCancel(context.Background())

	calls := make(chan struct{}, 1)
	blacklist.EXPECT().CleanupExpired(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return 1, nil
	}).MinTimes(1)

	done := make(chan struct{})
	go func() {
		svc.RunBlacklistCleanup(ctx, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestHTTPHandler_Logout(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name           string
		userID         string
		token          *httpx.TokenInfo
		setupMock      func(blacklist *MockBlacklistRepository)
		expectedStatus int
	}{
		{
			name:   "revokes the current token",
			userID: "user-1",
			token:  &httpx.TokenInfo{ID: "jti-1", ExpiresAt: expiresAt},
			setupMock: func(blacklist *MockBlacklistRepository) {
				blacklist.EXPECT().AddToken(gomock.Any(), "jti-1", "user-1", expiresAt).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "unauthenticated",
			setupMock:      func(blacklist *MockBlacklistRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token without id",
			userID:         "user-1",
			token:          &httpx.TokenInfo{ExpiresAt: expiresAt},
			setupMock:      func(blacklist *MockBlacklistRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "store error",
			userID: "user-1",
			token:  &httpx.TokenInfo{ID: "jti-1", ExpiresAt: expiresAt},
			setupMock: func(blacklist *MockBlacklistRepository) {
				blacklist.EXPECT().AddToken(gomock.Any(), "jti-1", "user-1", expiresAt).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, blacklist := newTestServiceWithBlacklist(t)
			tt.setupMock(blacklist)
			h := NewHTTPHandler(svc)

			r := httptest.NewRequest(http.MethodPost, "/v1/users/logout", nil)
			ctx := r.Context()
			if tt.userID != "" {
				ctx = httpx.ContextWithUser(ctx, tt.userID)
			}
			if tt.token != nil {
				ctx = httpx.ContextWithToken(ctx, *tt.token)
			}
			w := httptest.NewRecorder()

			h.Logout(w, r.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
