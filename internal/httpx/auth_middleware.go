package httpx

import (
	"context"
	"net/http"
	"strings"

	"musicapi/internal/platform/crypto"
)

// BlacklistChecker reports whether a token id was revoked by logout.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware rejects requests without a valid bearer token and exposes
// the token subject through UserIDFrom. When blacklist is non-nil, revoked
// tokens are rejected too; a failed lookup is treated as revoked.
func AuthMiddleware(secret string, blacklist BlacklistChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if err != nil || claims.Sub == "" {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}

			if blacklist != nil && claims.ID != "" {
				revoked, err := blacklist.IsBlacklisted(r.Context(), claims.ID)
				if err != nil || revoked {
					JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
					return
				}
			}

			ctx := ContextWithUser(r.Context(), claims.Sub)
			info := TokenInfo{ID: claims.ID}
			if claims.ExpiresAt != nil {
				info.ExpiresAt = claims.ExpiresAt.Time
			}
			ctx = ContextWithToken(ctx, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
