// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bytecache is a sharded, byte-bounded LRU of encoded blobs keyed by
// a 64-bit content hash.
package bytecache

import (
	"sync"
	"sync/atomic"

	"github.com/luxfi/glyphcache/lru"
)

const (
	numShards = 16
	shardMask = numShards - 1
)

// Stats contains cache performance metrics.
type Stats struct {
	EntriesCount uint64
	BytesSize    uint64
	GetCalls     uint64
	SetCalls     uint64
	Misses       uint64
}

// Cache spreads entries over shards by key so lookups of unrelated blobs do
// not contend. Values are stored as given and must not be modified after Set.
type Cache struct {
	shards [numShards]shard

	getCalls atomic.Uint64
	setCalls atomic.Uint64
	misses   atomic.Uint64
}

type shard struct {
	mu    sync.Mutex
	items *lru.Sized[uint64, []byte]
}

// New creates a cache holding at most maxBytes of values in total.
func New(maxBytes int64) *Cache {
	perShard := max(maxBytes/numShards, 1)
	c := &Cache{}
	for i := range c.shards {
		c.shards[i].items = lru.NewSized[uint64, []byte](perShard, 0, nil)
	}
	return c
}

func (c *Cache) shard(key uint64) *shard {
	return &c.shards[key&shardMask]
}

// Get returns the value stored under key.
func (c *Cache) Get(key uint64) ([]byte, bool) {
	c.getCalls.Add(1)
	s := c.shard(key)
	s.mu.Lock()
	v, ok := s.items.Get(key)
	s.mu.Unlock()
	if !ok {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value under key. Values larger than a shard are not cached.
func (c *Cache) Set(key uint64, value []byte) {
	c.setCalls.Add(1)
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if int64(len(value)) > s.items.MaxSize() {
		return
	}
	s.items.Put(key, value, int64(len(value)))
	s.items.Trim(nil)
}

// Del removes key from the cache.
func (c *Cache) Del(key uint64) {
	s := c.shard(key)
	s.mu.Lock()
	s.items.Evict(key)
	s.mu.Unlock()
}

// Reset clears all cached entries.
func (c *Cache) Reset() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.items.EvictIf(func(uint64, []byte) bool { return true })
		s.mu.Unlock()
	}
}

// UpdateStats populates the provided stats struct.
func (c *Cache) UpdateStats(st *Stats) {
	if st == nil {
		return
	}
	var entries, size uint64
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		entries += uint64(s.items.Len())
		size += uint64(s.items.Size())
		s.mu.Unlock()
	}
	st.EntriesCount = entries
	st.BytesSize = size
	st.GetCalls = c.getCalls.Load()
	st.SetCalls = c.setCalls.Load()
	st.Misses = c.misses.Load()
}
