package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"musicapi/internal/auth"
	"musicapi/internal/catalog"
	"musicapi/internal/httpx"
	"musicapi/internal/ingest"
	"musicapi/internal/rating"
)

type handlers struct {
	catalog *catalog.HTTPHandler
	ingest  *ingest.HTTPHandler
	rating  *rating.HTTPHandler
	auth    *auth.HTTPHandler
}

// newRouter registers every route. ready reports whether the durable store
// is reachable; blacklist holds tokens revoked by logout.
func newRouter(h handlers, jwtSecret string, blacklist httpx.BlacklistChecker, ready func(context.Context) error) *http.ServeMux {
	router := http.NewServeMux()
	protected := httpx.AuthMiddleware(jwtSecret, blacklist)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", promhttp.Handler())

	router.HandleFunc("GET /v1/search/albums", h.ingest.Search)
	router.HandleFunc("GET /v1/albums/{id}/select", h.ingest.Select)

	router.HandleFunc("GET /v1/albums", h.catalog.ListAlbums)
	router.HandleFunc("GET /v1/albums/{id}", h.catalog.GetAlbum)

	router.HandleFunc("GET /v1/albums/{id}/rating", h.rating.GetRating)
	router.Handle("POST /v1/albums/{id}/rating", protected(http.HandlerFunc(h.rating.CreateRating)))
	router.Handle("GET /v1/albums/{id}/rating/me", protected(http.HandlerFunc(h.rating.GetMyRating)))
	router.Handle("GET /v1/me/ratings", protected(http.HandlerFunc(h.rating.GetMyStats)))

	router.HandleFunc("POST /v1/users/register", h.auth.Register)
	router.HandleFunc("POST /v1/users/login", h.auth.Login)
	router.Handle("POST /v1/users/logout", protected(http.HandlerFunc(h.auth.Logout)))
	router.Handle("GET /v1/me", protected(http.HandlerFunc(h.auth.Me)))

	return router
}

// withMiddleware wraps the router in the shared middleware stack, outermost first.
func withMiddleware(router http.Handler, logger *zap.Logger, rl *httpx.RateLimiter, cfg middlewareConfig) http.Handler {
	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(logger),
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.enableHSTS),
		httpx.CORSMiddleware(cfg.allowedOrigins),
		rl.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.maxBodyBytes),
	)
}

type middlewareConfig struct {
	allowedOrigins []string
	enableHSTS     bool
	maxBodyBytes   int64
}
