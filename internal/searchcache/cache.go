// Package searchcache holds recent catalog search results in memory until an
// album is selected, the entry expires, or the process shuts down. Expired and
// drained entries are handed to a Persister so nothing a user browsed is lost.
package searchcache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"musicapi/internal/catalog"
)

const (
	DefaultTTL              = 5 * time.Minute
	DefaultMaxFlushAttempts = 3
	DefaultFlushConcurrency = 4
)

// Persister durably stores one album record. catalog.Engine satisfies it.
type Persister interface {
	UpsertAlbum(ctx context.Context, rec catalog.AlbumRecord) (int64, error)
}

type entry struct {
	stubs     []catalog.AlbumRecord
	createdAt time.Time
	// Number of sweeps that failed to persist part of this entry.
	attempts int
}

// Cache maps a search fingerprint to the album stubs that search returned.
// Expiry is discovered lazily by cache operations; RunSweeper can add a
// periodic sweep on top.
type Cache struct {
	persister        Persister
	logger           *zap.Logger
	now              func() time.Time
	ttl              time.Duration
	sweepInterval    time.Duration
	flushConcurrency int
	maxFlushAttempts int

	// Held for the whole of a sweep, including persister calls. Never held
	// together with mu across a persister call.
	sweepMu sync.Mutex

	mu      sync.Mutex
	entries map[string]*entry
	drained bool
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithSweepInterval enables the periodic sweep run by RunSweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) { c.sweepInterval = d }
}

func WithFlushConcurrency(n int) Option {
	return func(c *Cache) { c.flushConcurrency = n }
}

// WithMaxFlushAttempts bounds how many sweeps retry an expired entry whose
// albums failed to persist before it is dropped.
func WithMaxFlushAttempts(n int) Option {
	return func(c *Cache) { c.maxFlushAttempts = n }
}

func New(persister Persister, opts ...Option) *Cache {
	c := &Cache{
		persister:        persister,
		logger:           zap.NewNop(),
		now:              time.Now,
		ttl:              DefaultTTL,
		flushConcurrency: DefaultFlushConcurrency,
		maxFlushAttempts: DefaultMaxFlushAttempts,
		entries:          make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.flushConcurrency < 1 {
		c.flushConcurrency = 1
	}
	if c.maxFlushAttempts < 1 {
		c.maxFlushAttempts = 1
	}
	c.logger = c.logger.Named("searchcache")
	return c
}

// Fingerprint derives the cache key for a search.
func Fingerprint(query string, page int) string {
	return query + ":" + strconv.Itoa(page)
}

// Put stores stubs under fingerprint, replacing any previous entry for it
// without persisting the replaced stubs.
func (c *Cache) Put(fingerprint string, stubs []catalog.AlbumRecord) {
	cloned := cloneStubs(stubs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drained {
		c.logger.Warn("cache already drained, dropping search results",
			zap.String("fingerprint", fingerprint),
			zap.Int("albums", len(stubs)))
		return
	}
	c.entries[fingerprint] = &entry{stubs: cloned, createdAt: c.now()}
	liveEntries.Set(float64(len(c.entries)))
}

// FindByExternalID sweeps expired entries and then returns the first live
// stub with the given album id.
func (c *Cache) FindByExternalID(ctx context.Context, albumID string) (catalog.AlbumRecord, bool) {
	now := c.now()
	c.Sweep(ctx, now)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if c.expired(e, now) {
			continue
		}
		for _, stub := range e.stubs {
			if stub.ID == albumID {
				cacheHitsTotal.Inc()
				return stub.Clone(), true
			}
		}
	}
	cacheMissesTotal.Inc()
	return catalog.AlbumRecord{}, false
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RunSweeper sweeps on a fixed interval until ctx is cancelled. It returns
// immediately when no sweep interval is configured.
func (c *Cache) RunSweeper(ctx context.Context) {
	if c.sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx, c.now())
		}
	}
}

func (c *Cache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.createdAt) > c.ttl
}

func cloneStubs(stubs []catalog.AlbumRecord) []catalog.AlbumRecord {
	out := make([]catalog.AlbumRecord, len(stubs))
	for i, s := range stubs {
		out[i] = s.Clone()
	}
	return out
}
