// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package glyphcache memoizes per-glyph metrics and images for font rendering
// configurations.
//
// A StrikeSpec identifies one configuration (typeface, size, transform,
// style). The StrikeCache maps each spec to a shared Strike holding the glyph
// entries computed so far by an opaque Scaler, accounts their bytes against a
// budget and evicts least recently used strikes that nobody is using.
//
// Callers hold a StrikeRef while they use a strike; the ref pins the strike
// so eviction can never free data that is still in use:
//
//	ref, err := sc.FindOrCreateStrike(spec, factory)
//	if err != nil {
//	    return err
//	}
//	defer ref.Release()
//	glyph := ref.GetOrCompute(65)
package glyphcache

var _ StrikeCacher = (*StrikeCache)(nil)

// StrikeCacher is the lookup and budget surface of a strike cache.
type StrikeCacher interface {
	// FindOrCreateStrike returns a pinned reference to the strike for spec,
	// building it with factory when absent.
	FindOrCreateStrike(spec StrikeSpec, factory ScalerFactory) (*StrikeRef, error)

	// FindStrike returns a pinned reference to an existing strike.
	FindStrike(spec StrikeSpec) (*StrikeRef, bool)

	// SetCacheLimit updates the byte budget, evicting if needed.
	SetCacheLimit(bytes int64)

	// CacheLimit returns the byte budget.
	CacheLimit() int64

	// CacheUsed returns the bytes held by cached strikes.
	CacheUsed() int64

	// PurgeAll evicts every strike that is not in use.
	PurgeAll()

	// Len returns the number of cached strikes.
	Len() int

	// Stats returns a snapshot of the cache counters.
	Stats() Stats
}

// Scaler computes glyph data for one strike. Implementations must be safe
// for concurrent calls with distinct glyph ids.
type Scaler interface {
	ComputeGlyph(spec StrikeSpec, id GlyphID) (GlyphData, error)
}

// FontMetricsScaler is implemented by scalers that can report line metrics.
type FontMetricsScaler interface {
	FontMetrics(spec StrikeSpec) (FontMetrics, error)
}

// ScalerFactory builds the Scaler for a new strike.
type ScalerFactory func(spec StrikeSpec) (Scaler, error)

// Pinner lets an owner outside the cache veto eviction of an unpinned strike.
type Pinner interface {
	// CanDelete reports whether the strike may be evicted now.
	CanDelete() bool
}
