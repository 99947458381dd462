package repository

import "github.com/yourusername/pc-builder/internal/domain/entity"

// PriceCache price results keyed by entity.CacheKey
type PriceCache interface {
	// Get returns the entry only while it is fresh
	Get(key string) (entity.CacheEntry, bool)

	// Put stores or overwrites the entry for key
	Put(key string, result entity.PriceResult)

	// Sweep removes expired entries and returns how many were removed
	Sweep() int

	// Len number of stored entries, fresh or not
	Len() int
}
