// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sfntscaler computes glyph metrics and A8 masks from TrueType and
// OpenType fonts with golang.org/x/image.
package sfntscaler

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/image/font/sfnt"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/lru"
)

// DefaultRuneCacheSize bounds the rune to glyph index memo of a Font.
const DefaultRuneCacheSize = 1024

var (
	// ErrFontMismatch is returned when a spec names another typeface.
	ErrFontMismatch = errors.New("spec names a different font")

	// ErrNoGlyph is returned for runes the font does not map.
	ErrNoGlyph = errors.New("rune not mapped")

	// ErrSizeTooLarge is returned for strike sizes above MaxSize.
	ErrSizeTooLarge = errors.New("strike size too large")
)

type options struct {
	runeCacheSize int
}

// Option configures a Font.
type Option func(*options)

// WithRuneCacheSize bounds the rune to glyph index memo.
func WithRuneCacheSize(n int) Option {
	return func(o *options) {
		o.runeCacheSize = max(n, 1)
	}
}

// Font is a parsed font registered under a FontID. It is safe for concurrent
// use.
type Font struct {
	id   glyphcache.FontID
	font *sfnt.Font

	buffers sync.Pool
	runes   *lru.Cache[rune, glyphcache.GlyphID]
}

// New parses src and registers it as id.
func New(id glyphcache.FontID, src []byte, opts ...Option) (*Font, error) {
	o := options{runeCacheSize: DefaultRuneCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	f, err := sfnt.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing font %d: %w", id, err)
	}
	return &Font{
		id:   id,
		font: f,
		buffers: sync.Pool{
			New: func() any { return new(sfnt.Buffer) },
		},
		runes: lru.NewCache[rune, glyphcache.GlyphID](o.runeCacheSize),
	}, nil
}

// ID returns the font's FontID.
func (f *Font) ID() glyphcache.FontID { return f.id }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.font.NumGlyphs() }

// Spec returns a default spec for this font at size.
func (f *Font) Spec(size float32) glyphcache.StrikeSpec {
	return glyphcache.NewStrikeSpec(f.id, size)
}

// GlyphIndex maps r to a glyph id.
func (f *Font) GlyphIndex(r rune) (glyphcache.GlyphID, error) {
	return f.runes.GetOrLoad(r, f.loadGlyphIndex)
}

// GlyphIndices maps every rune of s.
func (f *Font) GlyphIndices(s string) ([]glyphcache.GlyphID, error) {
	ids := make([]glyphcache.GlyphID, 0, len(s))
	for _, r := range s {
		id, err := f.GlyphIndex(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *Font) loadGlyphIndex(r rune) (glyphcache.GlyphID, error) {
	b := f.buffers.Get().(*sfnt.Buffer)
	defer f.buffers.Put(b)

	x, err := f.font.GlyphIndex(b, r)
	if err != nil {
		return 0, err
	}
	if x == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoGlyph, r)
	}
	return glyphcache.GlyphID(x), nil
}

// ScalerFactory returns a factory building scalers for specs naming this
// font.
func (f *Font) ScalerFactory() glyphcache.ScalerFactory {
	return func(spec glyphcache.StrikeSpec) (glyphcache.Scaler, error) {
		if spec.FontID != f.id {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrFontMismatch, f.id, spec.FontID)
		}
		s, err := newScaler(f, spec)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
