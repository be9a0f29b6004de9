package searchcache

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"musicapi/internal/catalog"
)

// Drain persists every cached album, expired or not, and empties the cache.
// It runs at most once; later calls return nil immediately and later Puts
// are ignored. Work still pending when ctx is done is abandoned and reported
// in the returned error.
func (c *Cache) Drain(ctx context.Context) error {
	c.mu.Lock()
	if c.drained {
		c.mu.Unlock()
		return nil
	}
	c.drained = true
	entries := c.entries
	c.entries = make(map[string]*entry)
	liveEntries.Set(0)
	c.mu.Unlock()

	stubs := uniqueStubs(entries)
	if len(stubs) == 0 {
		return nil
	}
	c.logger.Info("draining search cache", zap.Int("entries", len(entries)), zap.Int("albums", len(stubs)))

	var flushed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.flushConcurrency)
	for _, stub := range stubs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := c.persister.UpsertAlbum(gctx, stub); err != nil {
				failed.Add(1)
				flushFailuresTotal.Inc()
				c.logger.Error("failed to persist album during drain",
					zap.String("album_id", stub.ID),
					zap.String("title", stub.Title),
					zap.Error(err))
				return nil
			}
			flushed.Add(1)
			return nil
		})
	}
	waitErr := g.Wait()

	abandoned := int64(len(stubs)) - flushed.Load() - failed.Load()
	c.logger.Info("search cache drained",
		zap.Int64("flushed", flushed.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("abandoned", abandoned))

	if abandoned > 0 {
		err := waitErr
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("drain: %d of %d albums not persisted: %w", abandoned, len(stubs), err)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("drain: %d of %d albums failed to persist", n, len(stubs))
	}
	return nil
}

// uniqueStubs flattens entries, keeping the first stub seen per album id.
func uniqueStubs(entries map[string]*entry) []catalog.AlbumRecord {
	seen := make(map[string]struct{})
	var out []catalog.AlbumRecord
	for _, e := range entries {
		for _, s := range e.stubs {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
