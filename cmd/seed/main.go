package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"musicapi/internal/catalog"
	"musicapi/internal/config"
	"musicapi/internal/ingest"
	"musicapi/internal/logging"
	"musicapi/internal/platform/deezer"
	"musicapi/internal/searchcache"
)

func main() {
	var (
		queries  = flag.String("queries", "daft punk,radiohead,miles davis,bjork,aphex twin", "Comma-separated search queries")
		perQuery = flag.Int("per-query", ingest.DefaultSearchLimit, "Albums to import per query")
	)
	flag.Parse()

	cfg, err := config.Load()
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
	logger = logger.Named("seed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	engine := catalog.NewEngine(catalog.NewPostgresRepo(pool, cfg.DBTimeout), logger)
	cache := searchcache.New(engine, searchcache.WithLogger(logger), searchcache.WithFlushConcurrency(cfg.FlushConcurrency))
	client := deezer.NewClient(cfg.DeezerUserAgent, cfg.DeezerRPS, cfg.DeezerMaxRetries, deezer.WithBaseURL(cfg.DeezerBaseURL))
	svc := ingest.NewService(client, cache, engine, logger)

	imported := seed(ctx, svc, splitQueries(*queries), *perQuery, logger)

	// Albums whose tracklist could not be fetched are still stored as stubs.
	if err := cache.Drain(context.WithoutCancel(ctx)); err != nil {
		logger.Error("failed to store remaining search results", zap.Error(err))
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM album").Scan(&total); err != nil {
		logger.Warn("failed to count albums", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("imported", imported), zap.Int("albums_in_catalog", total))
}

type searchSelector interface {
	Search(ctx context.Context, q ingest.SearchQuery) (ingest.SearchResult, error)
	Select(ctx context.Context, albumID string) (catalog.AlbumRecord, error)
}

// seed imports the top results of every query with their tracklists and
// returns how many albums were selected.
func seed(ctx context.Context, svc searchSelector, queries []string, perQuery int, logger *zap.Logger) int {
	imported := 0
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		res, err := svc.Search(ctx, ingest.SearchQuery{Q: q, Page: 1, Limit: perQuery})
		if err != nil {
			logger.Warn("search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, album := range res.Results {
			rec, err := svc.Select(ctx, album.ID)
			if err != nil {
				logger.Warn("select failed", zap.String("query", q), zap.String("album_id", album.ID), zap.Error(err))
				continue
			}
			imported++
			logger.Debug("imported album", zap.String("album_id", rec.ID), zap.String("title", rec.Title), zap.Int("tracks", len(rec.Tracks)))
		}
		logger.Info("query imported", zap.String("query", q), zap.Int("results", len(res.Results)))
	}
	return imported
}

func splitQueries(s string) []string {
	var out []string
	for _, q := range strings.Split(s, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
