package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// DefaultTTL freshness window of a cached price result
const DefaultTTL = 10 * time.Minute

type memoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]entity.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryPriceCache in-memory price cache. A nil clock uses time.Now.
func NewMemoryPriceCache(ttl time.Duration, clock func() time.Time) repository.PriceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &memoryPriceCache{
		entries: make(map[string]entity.CacheEntry),
		ttl:     ttl,
		now:     clock,
	}
}

// Get returns the entry for key while now - timestamp < ttl
func (c *memoryPriceCache) Get(key string) (entity.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		return entity.CacheEntry{}, false
	}
	return entry, true
}

// Put stores result under key; the last writer wins
func (c *memoryPriceCache) Put(key string, result entity.PriceResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entity.CacheEntry{Result: result, Timestamp: c.now()}
}

// Sweep drops every entry with now - timestamp >= ttl
func (c *memoryPriceCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len number of stored entries
func (c *memoryPriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryPriceCache) expired(entry entity.CacheEntry) bool {
	return c.now().Sub(entry.Timestamp) >= c.ttl
}

// StartSweeper sweeps cache every interval until ctx is done. It returns
// immediately; the sweep runs in its own goroutine.
func StartSweeper(ctx context.Context, cache repository.PriceCache, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := cache.Sweep(); removed > 0 {
					logger.Debug("price cache swept", "removed", removed, "remaining", cache.Len())
				}
			}
		}
	}()
}
