// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

const (
	// DefaultCacheLimit is the byte budget of a new StrikeCache.
	DefaultCacheLimit int64 = 2 * 1024 * 1024

	// DefaultCountLimit is the strike count bound of a new StrikeCache.
	DefaultCountLimit = 2048

	// DefaultMaxGlyphImageBytes bounds a single glyph image (256x256 ARGB).
	DefaultMaxGlyphImageBytes int64 = 256 * 256 * 4
)

type options struct {
	cacheLimit         int64
	countLimit         int
	maxGlyphImageBytes int64
	logger             *Logger
}

func defaultOptions() options {
	return options{
		cacheLimit:         DefaultCacheLimit,
		countLimit:         DefaultCountLimit,
		maxGlyphImageBytes: DefaultMaxGlyphImageBytes,
	}
}

// Option configures a StrikeCache.
type Option func(*options)

// WithCacheLimit sets the byte budget. Negative values are treated as zero.
func WithCacheLimit(bytes int64) Option {
	return func(o *options) {
		o.cacheLimit = max(bytes, 0)
	}
}

// WithCountLimit bounds the number of cached strikes. Values <= 0 remove the
// bound.
func WithCountLimit(n int) Option {
	return func(o *options) {
		o.countLimit = max(n, 0)
	}
}

// WithMaxGlyphImageBytes bounds the size of a single glyph image. Larger
// images are dropped and the entry keeps only its metrics. Values <= 0 remove
// the bound.
func WithMaxGlyphImageBytes(bytes int64) Option {
	return func(o *options) {
		o.maxGlyphImageBytes = max(bytes, 0)
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
