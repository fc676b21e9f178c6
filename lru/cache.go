// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lru provides the recency lists behind the strike cache and a small
// count-bounded memo cache for lookups that are cheap to redo.
package lru

import (
	"sync"

	"github.com/luxfi/container"
)

// Cache is a thread-safe LRU cache bounded by entry count.
type Cache[K comparable, V any] struct {
	mu             sync.Mutex
	containerCache container.Cache[K, V]
	capacity       int
}

// NewCache creates a new LRU cache holding at most size entries.
// Values below one are treated as one. Entries leave silently when a Put
// goes over capacity.
func NewCache[K comparable, V any](size int) *Cache[K, V] {
	size = max(size, 1)
	return &Cache[K, V]{
		containerCache: container.NewLRUCache[K, V](size),
		capacity:       size,
	}
}

// Get retrieves value from cache
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.containerCache.Get(key)
}

// Put adds value to cache
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containerCache.Put(key, value)
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result when it succeeds. load runs outside the lock, so two
// concurrent misses may both load; the later Put wins.
func (c *Cache[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Delete removes value from cache
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containerCache.Delete(key)
}

// Len returns cache size
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.containerCache.Len()
}

// Flush removes all entries from cache
func (c *Cache[K, V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containerCache = container.NewLRUCache[K, V](c.capacity)
}

// PortionFilled returns fraction of cache currently filled (0 --> 1)
func (c *Cache[K, V]) PortionFilled() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.containerCache.Len()) / float64(c.capacity)
}
