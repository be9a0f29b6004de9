package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"musicapi/internal/auth"
	"musicapi/internal/catalog"
	"musicapi/internal/config"
	"musicapi/internal/httpx"
	"musicapi/internal/ingest"
	"musicapi/internal/logging"
	"musicapi/internal/platform/deezer"
	"musicapi/internal/rating"
	"musicapi/internal/searchcache"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireJWTSecret()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := openDB(ctx, cfg.DSN, logger)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	catalogRepo := catalog.NewPostgresRepo(dbPool, cfg.DBTimeout)
	engine := catalog.NewEngine(catalogRepo, logger)

	cache := searchcache.New(engine,
		searchcache.WithLogger(logger),
		searchcache.WithTTL(cfg.CacheTTL),
		searchcache.WithSweepInterval(cfg.CacheSweepInterval),
		searchcache.WithFlushConcurrency(cfg.FlushConcurrency),
	)

	deezerClient := deezer.NewClient(cfg.DeezerUserAgent, cfg.DeezerRPS, cfg.DeezerMaxRetries,
		deezer.WithBaseURL(cfg.DeezerBaseURL))

	blacklist := auth.NewBlacklistPostgresRepo(dbPool, cfg.DBTimeout)
	authService := auth.NewService(auth.NewPostgresRepo(dbPool, cfg.DBTimeout), blacklist, cfg.JWTSecret, auth.DefaultTokenTTL, logger)
	h := handlers{
		catalog: catalog.NewHTTPHandler(catalog.NewService(catalogRepo)),
		ingest:  ingest.NewHTTPHandler(ingest.NewService(deezerClient, cache, engine, logger)),
		rating:  rating.NewHTTPHandler(rating.NewService(rating.NewPostgresRepo(dbPool, cfg.DBTimeout))),
		auth:    auth.NewHTTPHandler(authService),
	}

	rl := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := newRouter(h, cfg.JWTSecret, blacklist, func(ctx context.Context) error { return dbPool.Ping(ctx) })
	handler := withMiddleware(router, logger.Named("http"), rl, middlewareConfig{
		allowedOrigins: cfg.CORSAllowedOrigins,
		enableHSTS:     cfg.EnableHSTS,
		maxBodyBytes:   cfg.MaxBodyBytes,
	})

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	go cache.RunSweeper(bgCtx)
	go rl.Run(bgCtx)
	go authService.RunBlacklistCleanup(bgCtx, cfg.TokenCleanupInterval)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	return shutdown(httpServer, cache, cancelBg, cfg.ShutdownTimeout, logger)
}

// shutdown stops accepting requests, stops the sweeper, then flushes every
// cached search result to the catalog within timeout.
func shutdown(srv *http.Server, cache *searchcache.Cache, stopBackground context.CancelFunc, timeout time.Duration, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	stopBackground()

	if err := cache.Drain(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func openDB(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", redactDSN(dsn), err)
	}
	logger.Info("database connection OK")
	return pool, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
