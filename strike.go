// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const fontMetricsKey = "font-metrics"

// Strike holds the glyph entries computed for one StrikeSpec and accounts
// their bytes to the owning StrikeCache.
//
// Methods that may grow the strike must be called while holding a StrikeRef
// (or an explicit Pin) so the strike cannot be evicted underneath them.
type Strike struct {
	spec   StrikeSpec
	scaler Scaler
	cache  *StrikeCache

	mu          sync.RWMutex
	glyphs      map[GlyphID]*GlyphEntry
	fontMetrics *FontMetrics
	inflight    singleflight.Group

	size atomic.Int64

	// Guarded by cache.mu.
	pins   int
	doomed bool
	pinner Pinner
}

func newStrike(c *StrikeCache, spec StrikeSpec, scaler Scaler) *Strike {
	return &Strike{
		spec:   spec,
		scaler: scaler,
		cache:  c,
		glyphs: make(map[GlyphID]*GlyphEntry),
	}
}

// Spec returns the configuration this strike renders.
func (s *Strike) Spec() StrikeSpec { return s.spec }

// Scaler returns the scaler backing this strike.
func (s *Strike) Scaler() Scaler { return s.scaler }

// ByteSize returns the bytes held by the strike's glyph entries.
func (s *Strike) ByteSize() int64 { return s.size.Load() }

// GlyphCount returns the number of cached entries, empty ones included.
func (s *Strike) GlyphCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.glyphs)
}

// Lookup returns a cached entry without computing it.
func (s *Strike) Lookup(id GlyphID) (*GlyphEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.glyphs[id]
	return e, ok
}

// GetOrCompute returns the cached entry for id, asking the Scaler on a miss.
// Concurrent misses for the same id share one Scaler call. A Scaler failure
// is cached as an empty entry so it is not retried on every lookup.
func (s *Strike) GetOrCompute(id GlyphID) *GlyphEntry {
	if e, ok := s.Lookup(id); ok {
		return e
	}
	v, _, _ := s.inflight.Do(strconv.Itoa(int(id)), func() (any, error) {
		if e, ok := s.Lookup(id); ok {
			return e, nil
		}
		return s.store(s.compute(id)), nil
	})
	return v.(*GlyphEntry)
}

// Prepare returns the entries for ids in order, computing missing ones.
func (s *Strike) Prepare(ids []GlyphID) []*GlyphEntry {
	out := make([]*GlyphEntry, len(ids))
	for i, id := range ids {
		out[i] = s.GetOrCompute(id)
	}
	return out
}

// Insert stores a precomputed entry, typically one received from a remote
// strike server. It fills missing and empty slots only and reports whether e
// was stored.
func (s *Strike) Insert(e *GlyphEntry) bool {
	return s.store(e) == e
}

// Glyphs returns a snapshot of the cached entries ordered by glyph id.
func (s *Strike) Glyphs() []*GlyphEntry {
	s.mu.RLock()
	out := make([]*GlyphEntry, 0, len(s.glyphs))
	for _, e := range s.glyphs {
		out = append(out, e)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *GlyphEntry) int { return cmp.Compare(a.id, b.id) })
	return out
}

// FontMetrics returns the strike's line metrics, asking the Scaler once if it
// implements FontMetricsScaler. Failures are not cached.
func (s *Strike) FontMetrics() (FontMetrics, bool) {
	s.mu.RLock()
	fm := s.fontMetrics
	s.mu.RUnlock()
	if fm != nil {
		return *fm, true
	}
	fms, ok := s.scaler.(FontMetricsScaler)
	if !ok {
		return FontMetrics{}, false
	}
	v, err, _ := s.inflight.Do(fontMetricsKey, func() (any, error) {
		m, err := fms.FontMetrics(s.spec)
		if err != nil {
			return nil, err
		}
		s.SetFontMetrics(m)
		return m, nil
	})
	if err != nil {
		return FontMetrics{}, false
	}
	return v.(FontMetrics), true
}

// SetFontMetrics records line metrics unless some are already known.
func (s *Strike) SetFontMetrics(m FontMetrics) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fontMetrics != nil {
		return false
	}
	s.fontMetrics = &m
	return true
}

// Pin prevents eviction until the matching Unpin.
func (s *Strike) Pin() { s.cache.pin(s) }

// Unpin releases a Pin. Unpinning a strike with no pins panics.
func (s *Strike) Unpin() { s.cache.unpin(s) }

// Pins returns the current pin count.
func (s *Strike) Pins() int {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.pins
}

// Pinner returns the installed eviction veto, nil if none.
func (s *Strike) Pinner() Pinner {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.pinner
}

// SetPinner installs the eviction veto for this strike. A nil Pinner lets the
// budget alone decide.
func (s *Strike) SetPinner(p Pinner) {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.pinner = p
}

func (s *Strike) compute(id GlyphID) *GlyphEntry {
	data, err := s.scaler.ComputeGlyph(s.spec, id)
	if err != nil {
		s.cache.failures.Add(1)
		s.cache.log.LogGlyphFailure(s.spec, id, err)
		return NewEmptyGlyphEntry(id)
	}
	s.cache.computed.Add(1)
	e := NewGlyphEntry(id, data)
	if limit := s.cache.maxGlyphImageBytes; limit > 0 && int64(len(e.image)) > limit {
		e.dropImage()
	}
	return e
}

// store keeps the first non-empty entry for an id and returns the entry that
// ends up cached.
func (s *Strike) store(e *GlyphEntry) *GlyphEntry {
	s.mu.Lock()
	cur, ok := s.glyphs[e.id]
	if ok && (!cur.Empty() || e.Empty()) {
		s.mu.Unlock()
		return cur
	}
	delta := e.size
	if ok {
		delta -= cur.size
	}
	s.glyphs[e.id] = e
	s.mu.Unlock()

	s.cache.grow(s, delta)
	return e
}
