package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// ResultCache is the bounded TTL cache consulted before classification.
// Entries live in an in-memory LRU; an optional ResultStore acts as a shared
// second tier that is read through on miss and written through on put.
type ResultCache struct {
	entries    *expirable.LRU[string, *models.ProcessingResult]
	store      models.ResultStore
	ttl        time.Duration
	maxEntries int
	logger     zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	hits   int64
	misses int64
}

type Option func(*ResultCache)

// WithClock replaces time.Now for entry ages.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

func NewResultCache(cfg *config.CacheConfig, store models.ResultStore, logger zerolog.Logger, opts ...Option) *ResultCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1000
	}

	c := &ResultCache{
		entries:    expirable.NewLRU[string, *models.ProcessingResult](maxEntries, nil, ttl),
		store:      store,
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached result, or nil on miss or expiry. Age is
// measured from CachedAt, so an entry read through from the second tier
// expires when it was written, not when it was promoted.
func (c *ResultCache) Get(ctx context.Context, key string) *models.ProcessingResult {
	if result, ok := c.entries.Get(key); ok {
		if !c.expired(result) {
			c.record(true)
			return result.Clone()
		}
		c.entries.Remove(key)
	}

	if c.store != nil {
		result, err := c.store.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("key", key).Msg("second-tier cache read failed")
		case result == nil:
		case c.expired(result):
			if err := c.store.Delete(ctx, key); err != nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("failed to evict stale second-tier entry")
			}
		default:
			c.entries.Add(key, result)
			c.record(true)
			return result.Clone()
		}
	}

	c.record(false)
	return nil
}

// Put stores a copy stamped with the current time in both tiers.
func (c *ResultCache) Put(ctx context.Context, key string, result *models.ProcessingResult) {
	if result == nil {
		return
	}
	stored := result.Clone()
	stored.CachedAt = c.now()
	c.entries.Add(key, stored)

	if c.store != nil {
		if err := c.store.Set(ctx, key, stored); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("second-tier cache write failed")
		}
	}
}

// Entries without a timestamp have unknown age and are never served.
func (c *ResultCache) expired(result *models.ProcessingResult) bool {
	return result.CachedAt.IsZero() || c.now().Sub(result.CachedAt) >= c.ttl
}

// Clear drops every entry in both tiers and resets the hit counters.
func (c *ResultCache) Clear(ctx context.Context) error {
	c.entries.Purge()

	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()

	if c.store != nil {
		return c.store.Clear(ctx)
	}
	return nil
}

func (c *ResultCache) Stats() models.CacheStatistics {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	stats := models.CacheStatistics{
		TotalEntries: c.entries.Len(),
		MaxEntries:   c.maxEntries,
		Hits:         hits,
		Misses:       misses,
		TTL:          c.ttl,
		SecondTier:   c.store != nil,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

func (c *ResultCache) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health returns nil when the cache can serve reads. The memory tier is
// always usable; a second tier that supports Ping is probed.
func (c *ResultCache) Health(ctx context.Context) error {
	if p, ok := c.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("second-tier cache unreachable: %w", err)
		}
	}
	return nil
}
