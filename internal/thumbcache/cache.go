// Package thumbcache holds decoded preview images in a bounded,
// least-recently-used cache shared by the analysis workers and the HTTP
// preview endpoint.
package thumbcache

import (
	"fmt"
	"image"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"photo-triage/internal/metrics"
)

// DefaultCapacity is the number of previews kept when none is configured.
const DefaultCapacity = 1500

// Cache maps image paths to decoded previews. Both Get and Insert count as
// a use. Safe for concurrent use.
type Cache struct {
	entries   *lru.Cache[string, image.Image]
	capacity  atomic.Int64
	evictions atomic.Int64
}

// New creates a cache holding at most capacity previews.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("thumbcache: capacity must be positive, got %d", capacity)
	}
	entries, err := lru.New[string, image.Image](capacity)
	if err != nil {
		return nil, fmt.Errorf("thumbcache: %w", err)
	}
	c := &Cache{entries: entries}
	c.capacity.Store(int64(capacity))
	return c, nil
}

// Get returns the preview for path and marks it most recently used.
func (c *Cache) Get(path string) (image.Image, bool) {
	img, ok := c.entries.Get(path)
	if ok {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	return img, ok
}

// Contains reports whether path is cached without touching recency.
func (c *Cache) Contains(path string) bool {
	return c.entries.Contains(path)
}

// Insert stores img under path. Inserting an existing key replaces the value
// and refreshes recency. At capacity the least recently used entry is
// evicted first.
func (c *Cache) Insert(path string, img image.Image) {
	if c.entries.Add(path, img) {
		c.evicted(1)
	}
	metrics.CacheEntries.Set(float64(c.entries.Len()))
}

// evicted counts capacity evictions. Clear is not an eviction.
func (c *Cache) evicted(n int) {
	if n <= 0 {
		return
	}
	c.evictions.Add(int64(n))
	metrics.CacheEvictions.Add(float64(n))
}

// Evictions returns the number of entries dropped to stay within capacity.
func (c *Cache) Evictions() int64 {
	return c.evictions.Load()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
	metrics.CacheEntries.Set(0)
}

// Len returns the number of cached previews.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Capacity returns the configured maximum.
func (c *Cache) Capacity() int {
	return int(c.capacity.Load())
}

// Resize changes the capacity, evicting least recently used entries when
// shrinking. It returns the number evicted.
func (c *Cache) Resize(capacity int) (int, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("thumbcache: capacity must be positive, got %d", capacity)
	}
	evicted := c.entries.Resize(capacity)
	c.evicted(evicted)
	c.capacity.Store(int64(capacity))
	metrics.CacheEntries.Set(float64(c.entries.Len()))
	return evicted, nil
}

// Keys returns cached paths from least to most recently used.
func (c *Cache) Keys() []string {
	return c.entries.Keys()
}
