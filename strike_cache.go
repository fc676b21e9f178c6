// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/luxfi/glyphcache/lru"
)

// Stats is a snapshot of StrikeCache counters.
type Stats struct {
	Strikes        int
	Used           int64
	Limit          int64
	CountLimit     int
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	CreateRaces    uint64
	GlyphsComputed uint64
	GlyphFailures  uint64
	Purges         uint64
}

// StrikeCache maps StrikeSpecs to shared Strikes under a byte budget.
//
// A single mutex guards the recency list, the byte accounting and every
// strike's pin state. It is never held across Scaler calls.
type StrikeCache struct {
	mu      sync.Mutex
	strikes *lru.Sized[StrikeSpec, *Strike]
	closed  bool

	maxGlyphImageBytes int64
	log                *Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	races     atomic.Uint64
	computed  atomic.Uint64
	failures  atomic.Uint64
	purges    atomic.Uint64
}

// NewStrikeCache creates an empty cache.
func NewStrikeCache(opts ...Option) *StrikeCache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	c := &StrikeCache{
		maxGlyphImageBytes: o.maxGlyphImageBytes,
		log:                o.logger,
	}
	c.strikes = lru.NewSized(o.cacheLimit, o.countLimit, c.onEvict)
	return c
}

// FindOrCreateStrike returns a pinned reference to the strike for spec. On a
// miss factory runs without the cache lock held; if another goroutine
// created the same strike meanwhile, the new scaler is discarded and the
// existing strike returned.
func (c *StrikeCache) FindOrCreateStrike(spec StrikeSpec, factory ScalerFactory) (*StrikeRef, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if s, ok := c.acquireLocked(spec); ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return newStrikeRef(s), nil
	}
	c.mu.Unlock()
	c.misses.Add(1)

	if factory == nil {
		return nil, ErrNoScaler
	}
	scaler, err := factory(spec)
	if err != nil {
		return nil, fmt.Errorf("creating scaler for %s: %w", spec, err)
	}
	if scaler == nil {
		return nil, ErrNoScaler
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		discardScaler(scaler)
		return nil, ErrClosed
	}
	if s, ok := c.acquireLocked(spec); ok {
		c.races.Add(1)
		c.log.Debug("strike creation race lost", "font", spec.FontID, "size", spec.Size)
		discardScaler(scaler)
		return newStrikeRef(s), nil
	}

	s := newStrike(c, spec, scaler)
	s.pins = 1
	c.strikes.Put(spec, s, 0)
	c.trimLocked()
	return newStrikeRef(s), nil
}

// FindStrike returns a pinned reference to an existing strike.
func (c *StrikeCache) FindStrike(spec StrikeSpec) (*StrikeRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	s, ok := c.acquireLocked(spec)
	if !ok {
		return nil, false
	}
	c.hits.Add(1)
	return newStrikeRef(s), true
}

// SetCacheLimit updates the byte budget and evicts down to it.
func (c *StrikeCache) SetCacheLimit(bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strikes.SetMaxSize(bytes)
	c.trimLocked()
}

// CacheLimit returns the byte budget.
func (c *StrikeCache) CacheLimit() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strikes.MaxSize()
}

// CacheUsed returns the bytes held by cached strikes.
func (c *StrikeCache) CacheUsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strikes.Size()
}

// SetCountLimit bounds the number of cached strikes. Values <= 0 remove the
// bound.
func (c *StrikeCache) SetCountLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strikes.SetMaxLen(n)
	c.trimLocked()
}

// CountLimit returns the strike count bound, 0 when unbounded.
func (c *StrikeCache) CountLimit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strikes.MaxLen()
}

// Len returns the number of cached strikes.
func (c *StrikeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strikes.Len()
}

// PurgeAll evicts every strike that is not in use. Pinned strikes are marked
// doomed and leave the cache when their last pin is released, unless they are
// acquired again first.
func (c *StrikeCache) PurgeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purges.Add(1)
	n := c.strikes.EvictIf(func(spec StrikeSpec, s *Strike) bool {
		if s.pins > 0 {
			s.doomed = true
			return false
		}
		return c.evictableLocked(spec, s)
	})
	c.log.Debug("strikes purged", "evicted", n, "remaining", c.strikes.Len())
}

// ForEach calls fn for each strike from most to least recently used until fn
// returns false. The cache lock is held; fn must not call back into the
// cache or compute glyphs.
func (c *StrikeCache) ForEach(fn func(*Strike) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strikes.Range(func(_ StrikeSpec, s *Strike, _ int64) bool {
		return fn(s)
	})
}

// Stats returns a snapshot of the cache counters.
func (c *StrikeCache) Stats() Stats {
	c.mu.Lock()
	st := Stats{
		Strikes:    c.strikes.Len(),
		Used:       c.strikes.Size(),
		Limit:      c.strikes.MaxSize(),
		CountLimit: c.strikes.MaxLen(),
	}
	c.mu.Unlock()
	st.Hits = c.hits.Load()
	st.Misses = c.misses.Load()
	st.Evictions = c.evictions.Load()
	st.CreateRaces = c.races.Load()
	st.GlyphsComputed = c.computed.Load()
	st.GlyphFailures = c.failures.Load()
	st.Purges = c.purges.Load()
	return st
}

// Close evicts every unpinned strike, ignoring pinner vetoes, and makes
// further lookups fail with ErrClosed. Pinned strikes leave when released.
func (c *StrikeCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.strikes.EvictIf(func(_ StrikeSpec, s *Strike) bool {
		if s.pins > 0 {
			s.doomed = true
			return false
		}
		return true
	})
	c.log.Debug("strike cache closed", "pinned", c.strikes.Len())
	return nil
}

func (c *StrikeCache) acquireLocked(spec StrikeSpec) (*Strike, bool) {
	s, ok := c.strikes.Get(spec)
	if !ok {
		return nil, false
	}
	s.pins++
	s.doomed = false
	return s, true
}

func (c *StrikeCache) evictableLocked(_ StrikeSpec, s *Strike) bool {
	if s.pins > 0 {
		return false
	}
	return c.closed || s.pinner == nil || s.pinner.CanDelete()
}

func (c *StrikeCache) trimLocked() {
	if c.strikes.Over() {
		c.strikes.Trim(c.evictableLocked)
	}
}

func (c *StrikeCache) onEvict(spec StrikeSpec, s *Strike, size int64) {
	s.doomed = false
	c.evictions.Add(1)
	c.log.LogEviction(spec, size, c.strikes.Size(), c.strikes.MaxSize())
}

// holdsLocked reports whether s is the strike currently cached for its spec.
func (c *StrikeCache) holdsLocked(s *Strike) bool {
	cur, ok := c.strikes.Peek(s.spec)
	return ok && cur == s
}

func (c *StrikeCache) grow(s *Strike, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.size.Add(delta)
	if c.holdsLocked(s) {
		c.strikes.Resize(s.spec, delta)
		c.trimLocked()
	}
}

func (c *StrikeCache) pin(s *Strike) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.pins++
	s.doomed = false
}

func (c *StrikeCache) unpin(s *Strike) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.pins <= 0 {
		panic("glyphcache: unpin of a strike with no pins")
	}
	s.pins--
	if s.pins > 0 {
		return
	}
	if (s.doomed || c.closed) && c.holdsLocked(s) && c.evictableLocked(s.spec, s) {
		c.strikes.Evict(s.spec)
	}
	s.doomed = false
	c.trimLocked()
}

func discardScaler(s Scaler) {
	if closer, ok := s.(io.Closer); ok {
		_ = closer.Close()
	}
}

// StrikeRef is a pinned handle on a Strike. Release it exactly once.
type StrikeRef struct {
	strike   *Strike
	released atomic.Bool
}

func newStrikeRef(s *Strike) *StrikeRef {
	return &StrikeRef{strike: s}
}

// Strike returns the referenced strike.
func (r *StrikeRef) Strike() *Strike { return r.strike }

// GetOrCompute is shorthand for r.Strike().GetOrCompute(id).
func (r *StrikeRef) GetOrCompute(id GlyphID) *GlyphEntry {
	return r.strike.GetOrCompute(id)
}

// Release unpins the strike. Releasing twice panics.
func (r *StrikeRef) Release() {
	if !r.released.CompareAndSwap(false, true) {
		panic("glyphcache: StrikeRef released twice")
	}
	r.strike.Unpin()
}
