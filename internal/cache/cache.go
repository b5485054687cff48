// Package cache provides the process-wide bounded response cache.
//
// Values are always the final serialized (string) form of a document —
// callers serialize before insertion, the cache never does. Keys are
// resource URIs or composite lookup keys. The cache is safe for
// concurrent use.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 500

// Cache is a fixed-capacity string cache with least-recently-used
// eviction. Get promotes the key to most-recently-used; Set overwrites and
// promotes; exceeding capacity evicts strictly the least-recently-used
// entries.
type Cache struct {
	entries *lru.Cache[string, string]
}

// New creates a Cache with the given capacity. Capacity must be positive.
func New(capacity int) (*Cache, error) {
	entries, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached value for key, promoting it to most-recently-used.
func (c *Cache) Get(key string) (string, bool) {
	return c.entries.Get(key)
}

// Set stores value under key as the most-recently-used entry, evicting the
// least-recently-used entry if the cache is full.
func (c *Cache) Set(key, value string) {
	c.entries.Add(key, value)
}

// Delete removes key, reporting whether it was present.
func (c *Cache) Delete(key string) bool {
	return c.entries.Remove(key)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
