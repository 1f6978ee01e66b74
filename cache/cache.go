// Package cache implements the coordinator's bounded most-recently-used
// result cache.
package cache

import "github.com/hashicorp/golang-lru"

// Capacity is the fixed cache size, C in the design notes.
const Capacity = 4

// Cache is a key -> value LRU of fixed capacity. All operations are safe
// for concurrent use.
type Cache struct {
	inner *lru.Cache
}

// New returns an empty cache with capacity Capacity.
func New() *Cache {
	return NewWithCapacity(Capacity)
}

// NewWithCapacity returns an empty cache with the given capacity. A
// non-positive capacity falls back to Capacity.
func NewWithCapacity(capacity int) *Cache {
	if capacity <= 0 {
		capacity = Capacity
	}
	c, err := lru.New(capacity)
	if err != nil {
		// Only returns an error for a non-positive size, guarded above.
		panic(err)
	}
	return &Cache{inner: c}
}

// Get returns the cached value for key and marks it most-recently-used.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.inner.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Contains reports whether key is cached without affecting ordering beyond
// what the subsequent Get call a cache hit always performs.
func (c *Cache) Contains(key string) bool {
	return c.inner.Contains(key)
}

// Put inserts or updates key, marking it most-recently-used. If the cache
// is at capacity, the least-recently-used entry is evicted first.
func (c *Cache) Put(key, value string) {
	c.inner.Add(key, value)
}

// Remove drops key from the cache, if present.
func (c *Cache) Remove(key string) {
	c.inner.Remove(key)
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}
