// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

// GlyphID is a glyph index within a typeface.
type GlyphID uint16

// MaskFormat is the pixel layout of a glyph image.
type MaskFormat uint8

const (
	MaskA8 MaskFormat = iota
	MaskA1
	MaskARGB32
	MaskLCD16
)

// Valid reports whether f is a known format.
func (f MaskFormat) Valid() bool { return f <= MaskLCD16 }

// GlyphMetrics positions a glyph image relative to the pen.
type GlyphMetrics struct {
	AdvanceX float32
	AdvanceY float32
	Left     int16
	Top      int16
	Width    uint16
	Height   uint16
	Format   MaskFormat
}

// FontMetrics are the line metrics of a strike.
type FontMetrics struct {
	Ascent    float32
	Descent   float32
	Leading   float32
	XHeight   float32
	CapHeight float32
}

// GlyphData is what a Scaler produces for one glyph. ByteSize may be left
// zero, in which case the entry size is derived from the image length.
type GlyphData struct {
	Metrics  GlyphMetrics
	Image    []byte
	ByteSize int64
}

// glyphEntryOverhead approximates the fixed cost of an entry.
const glyphEntryOverhead = 56

type entryFlags uint8

const (
	entryEmpty entryFlags = 1 << iota
	entryImageTooLarge
)

// GlyphEntry is an immutable cached glyph.
type GlyphEntry struct {
	id      GlyphID
	metrics GlyphMetrics
	image   []byte
	flags   entryFlags
	size    int64
}

// NewGlyphEntry builds an entry from scaler output.
func NewGlyphEntry(id GlyphID, data GlyphData) *GlyphEntry {
	size := glyphEntryOverhead + int64(len(data.Image))
	if data.ByteSize > size {
		size = data.ByteSize
	}
	return &GlyphEntry{
		id:      id,
		metrics: data.Metrics,
		image:   data.Image,
		size:    size,
	}
}

// NewEmptyGlyphEntry builds the entry recorded when no data is available.
func NewEmptyGlyphEntry(id GlyphID) *GlyphEntry {
	return &GlyphEntry{id: id, flags: entryEmpty, size: glyphEntryOverhead}
}

func (e *GlyphEntry) dropImage() {
	e.size = glyphEntryOverhead
	e.image = nil
	e.flags |= entryImageTooLarge
}

func (e *GlyphEntry) ID() GlyphID { return e.id }

func (e *GlyphEntry) Metrics() GlyphMetrics { return e.metrics }

// Image returns the glyph pixels. The slice is shared and must not be
// modified.
func (e *GlyphEntry) Image() []byte { return e.image }

func (e *GlyphEntry) HasImage() bool { return len(e.image) > 0 }

// Empty reports whether the scaler could not produce this glyph.
func (e *GlyphEntry) Empty() bool { return e.flags&entryEmpty != 0 }

// ImageTooLarge reports whether the image was dropped for exceeding the
// configured bound.
func (e *GlyphEntry) ImageTooLarge() bool { return e.flags&entryImageTooLarge != 0 }

// ByteSize is the number of bytes charged to the cache for this entry.
func (e *GlyphEntry) ByteSize() int64 { return e.size }
