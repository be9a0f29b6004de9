package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicapi/internal/platform/crypto"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	var gotUser string
	handler := AuthMiddleware(secret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFrom(r)
		w.WriteHeader(http.StatusOK)
	}))

	valid, _, err := crypto.GenerateToken(secret, "user-1", "alice", time.Hour)
	assert.NoError(t, err)
	foreign, _, err := crypto.GenerateToken("other-secret", "user-1", "alice", time.Hour)
	assert.NoError(t, err)
	noSubject, _, err := crypto.GenerateToken(secret, "", "alice", time.Hour)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUser   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
		{"empty subject", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUser, gotUser)
		})
	}
}

func TestAuthMiddleware_Blacklist(t *testing.T) {
	const secret = "test-secret"
	token, jti, err := crypto.GenerateToken(secret, "user-1", "alice", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		blacklist      BlacklistChecker
		expectedStatus int
	}{
		{"not revoked", fakeBlacklist{}, http.StatusOK},
		{"revoked", fakeBlacklist{revoked: map[string]bool{jti: true}}, http.StatusUnauthorized},
		{"other token revoked", fakeBlacklist{revoked: map[string]bool{"other": true}}, http.StatusOK},
		{"lookup fails", fakeBlacklist{err: errors.New("db down")}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TokenInfo
			handler := AuthMiddleware(secret, tt.blacklist)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = TokenFrom(r)
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, jti, got.ID)
				assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)
			}
		})
	}
}
