// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
)

// Batch is one frame of strike data sent from a Server to a Client.
type Batch struct {
	Typefaces []Typeface
	Strikes   []StrikeData
}

// Empty reports whether the batch carries nothing.
func (b Batch) Empty() bool {
	return len(b.Typefaces) == 0 && len(b.Strikes) == 0
}

// Typeface announces a font the following strikes refer to.
type Typeface struct {
	ID glyphcache.FontID
}

// StrikeData is the delta of one remote strike. Full is set when the handle
// is new and the client must start a fresh binding.
type StrikeData struct {
	Handle      discardable.HandleID
	Spec        glyphcache.StrikeSpec
	Checksum    uint64
	Full        bool
	FontMetrics *glyphcache.FontMetrics
	Glyphs      []GlyphPayload
}

// GlyphPayload carries one computed glyph.
type GlyphPayload struct {
	ID      glyphcache.GlyphID
	Metrics glyphcache.GlyphMetrics
	Image   []byte
	Empty   bool
}

func payloadOf(e *glyphcache.GlyphEntry) GlyphPayload {
	return GlyphPayload{
		ID:      e.ID(),
		Metrics: e.Metrics(),
		Image:   e.Image(),
		Empty:   e.Empty(),
	}
}

// Entry converts the payload back into a cache entry.
func (p GlyphPayload) Entry() *glyphcache.GlyphEntry {
	if p.Empty {
		return glyphcache.NewEmptyGlyphEntry(p.ID)
	}
	return glyphcache.NewGlyphEntry(p.ID, glyphcache.GlyphData{
		Metrics: p.Metrics,
		Image:   p.Image,
	})
}

// Sum hashes the handle, spec and payload of d with murmur3.
func (d *StrikeData) Sum() uint64 {
	h := murmur3.New64()
	var buf [64]byte

	b := binary.LittleEndian.AppendUint64(buf[:0], uint64(d.Handle))
	b = d.Spec.AppendBinary(b)
	if d.Full {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	_, _ = h.Write(b)

	if fm := d.FontMetrics; fm != nil {
		b = buf[:0]
		for _, f := range [...]float32{fm.Ascent, fm.Descent, fm.Leading, fm.XHeight, fm.CapHeight} {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
		_, _ = h.Write(b)
	}

	for _, g := range d.Glyphs {
		m := g.Metrics
		b = binary.LittleEndian.AppendUint16(buf[:0], uint16(g.ID))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(m.AdvanceX))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(m.AdvanceY))
		b = binary.LittleEndian.AppendUint16(b, uint16(m.Left))
		b = binary.LittleEndian.AppendUint16(b, uint16(m.Top))
		b = binary.LittleEndian.AppendUint16(b, m.Width)
		b = binary.LittleEndian.AppendUint16(b, m.Height)
		b = append(b, byte(m.Format))
		if g.Empty {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
		b = binary.LittleEndian.AppendUint32(b, uint32(len(g.Image)))
		_, _ = h.Write(b)
		_, _ = h.Write(g.Image)
	}
	return h.Sum64()
}

// Seal stores the current Sum in Checksum.
func (d *StrikeData) Seal() {
	d.Checksum = d.Sum()
}
