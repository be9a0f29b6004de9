package httpx

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	requestIDKey contextKey = "requestID"
	tokenKey     contextKey = "token"
)

// TokenInfo identifies the bearer token a request was authenticated with.
type TokenInfo struct {
	ID        string
	ExpiresAt time.Time
}

// UserIDFrom retrieves the authenticated caller's id from the request context.
func UserIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUser returns a new context carrying the caller's id.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// TokenFrom returns the authenticated request's token id and expiry.
func TokenFrom(r *http.Request) (TokenInfo, bool) {
	v, ok := r.Context().Value(tokenKey).(TokenInfo)
	return v, ok
}

func ContextWithToken(ctx context.Context, info TokenInfo) context.Context {
	return context.WithValue(ctx, tokenKey, info)
}
