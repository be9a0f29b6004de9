package searchcache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"musicapi/internal/catalog"
)

// SweepResult summarizes one sweep.
type SweepResult struct {
	Expired  int // entries found past their TTL
	Flushed  int // albums persisted
	Failed   int // albums that failed to persist
	Retained int // expired entries kept for another attempt
	Dropped  int // entries given up on after the last attempt
}

type expiredEntry struct {
	key   string
	entry *entry
}

// Sweep persists every entry older than the TTL at now and removes it. The
// cache lock is only held to snapshot and to remove, never while persisting.
// Albums that fail to persist stay in an expired entry that later sweeps
// retry; the entry is dropped after the configured number of attempts.
func (c *Cache) Sweep(ctx context.Context, now time.Time) SweepResult {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	snapshot := c.snapshotExpired(now)
	if len(snapshot) == 0 {
		return SweepResult{}
	}

	res := SweepResult{Expired: len(snapshot)}
	failed := make(map[string][]catalog.AlbumRecord)
	for _, s := range snapshot {
		for _, stub := range s.entry.stubs {
			if ctx.Err() != nil {
				// Not attempted; kept for the next sweep or Drain.
				failed[s.key] = append(failed[s.key], stub)
				continue
			}
			if _, err := c.persister.UpsertAlbum(ctx, stub); err != nil {
				res.Failed++
				failed[s.key] = append(failed[s.key], stub)
				flushFailuresTotal.Inc()
				c.logger.Error("failed to persist expired album",
					zap.String("fingerprint", s.key),
					zap.String("album_id", stub.ID),
					zap.String("title", stub.Title),
					zap.Int("attempt", s.entry.attempts+1),
					zap.Error(err))
				continue
			}
			res.Flushed++
		}
	}

	// Failures caused by cancellation say nothing about the store, so they
	// do not use up an attempt.
	cancelled := ctx.Err() != nil

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range snapshot {
		// A Put after the snapshot replaced the entry; the new one stays.
		if cur, ok := c.entries[s.key]; !ok || cur != s.entry {
			continue
		}

		stubs := failed[s.key]
		if len(stubs) == 0 {
			delete(c.entries, s.key)
			continue
		}

		attempts := s.entry.attempts
		if !cancelled {
			attempts++
		}
		if !cancelled && attempts >= c.maxFlushAttempts {
			delete(c.entries, s.key)
			res.Dropped++
			droppedEntriesTotal.Inc()
			c.logger.Error("dropping expired search results after repeated persistence failures",
				zap.String("fingerprint", s.key),
				zap.Strings("album_ids", stubIDs(stubs)),
				zap.Int("attempts", attempts))
			continue
		}
		c.entries[s.key] = &entry{stubs: stubs, createdAt: s.entry.createdAt, attempts: attempts}
		res.Retained++
	}

	sweptEntriesTotal.Add(float64(res.Expired - res.Retained))
	liveEntries.Set(float64(len(c.entries)))
	c.logger.Debug("swept expired search results",
		zap.Int("expired", res.Expired),
		zap.Int("flushed", res.Flushed),
		zap.Int("failed", res.Failed),
		zap.Int("retained", res.Retained),
		zap.Int("dropped", res.Dropped))
	return res
}

func (c *Cache) snapshotExpired(now time.Time) []expiredEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []expiredEntry
	for key, e := range c.entries {
		if c.expired(e, now) {
			out = append(out, expiredEntry{key: key, entry: e})
		}
	}
	return out
}

func stubIDs(stubs []catalog.AlbumRecord) []string {
	ids := make([]string, len(stubs))
	for i, s := range stubs {
		ids[i] = s.ID
	}
	return ids
}
