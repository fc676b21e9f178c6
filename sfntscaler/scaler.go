// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package sfntscaler

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/luxfi/glyphcache"
)

// maxMaskSide bounds mask width and height. Larger glyphs keep their metrics
// only.
const maxMaskSide = 4096

var _ glyphcache.FontMetricsScaler = (*scaler)(nil)

// scaler renders one strike of a Font.
type scaler struct {
	font    *Font
	spec    glyphcache.StrikeSpec
	ppem    fixed.Int26_6
	hinting font.Hinting
}

// MaxSize is the largest strike size a scaler accepts. Its 26.6 ppem fits
// in an int32 with room for rounding.
const MaxSize float32 = 1 << 24

func newScaler(f *Font, spec glyphcache.StrikeSpec) (*scaler, error) {
	if spec.Size > MaxSize {
		return nil, fmt.Errorf("%w: %g exceeds %g", ErrSizeTooLarge, spec.Size, MaxSize)
	}
	return &scaler{
		font:    f,
		spec:    spec,
		ppem:    fixed.Int26_6(math.Round(float64(spec.Size) * 64)),
		hinting: hintingOf(spec.Hinting),
	}, nil
}

func hintingOf(h glyphcache.Hinting) font.Hinting {
	switch h {
	case glyphcache.HintingNone:
		return font.HintingNone
	case glyphcache.HintingSlight:
		return font.HintingVertical
	default:
		return font.HintingFull
	}
}

// project applies the strike's horizontal scale and skew.
func (s *scaler) project(p fixed.Point26_6) (float32, float32) {
	x := float32(p.X) / 64
	y := float32(p.Y) / 64
	return x*s.spec.ScaleX + y*s.spec.SkewX, y
}

func (s *scaler) ComputeGlyph(_ glyphcache.StrikeSpec, id glyphcache.GlyphID) (glyphcache.GlyphData, error) {
	b := s.font.buffers.Get().(*sfnt.Buffer)
	defer s.font.buffers.Put(b)

	x := sfnt.GlyphIndex(id)
	advance, err := s.font.font.GlyphAdvance(b, x, s.ppem, s.hinting)
	if err != nil {
		return glyphcache.GlyphData{}, fmt.Errorf("glyph %d advance: %w", id, err)
	}
	segments, err := s.font.font.LoadGlyph(b, x, s.ppem, nil)
	if err != nil {
		return glyphcache.GlyphData{}, fmt.Errorf("glyph %d outline: %w", id, err)
	}

	metrics := glyphcache.GlyphMetrics{
		AdvanceX: float32(advance) / 64 * s.spec.ScaleX,
		Format:   glyphcache.MaskA8,
	}
	if len(segments) == 0 {
		return glyphcache.GlyphData{Metrics: metrics}, nil
	}

	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, seg := range segments {
		for _, p := range seg.Args[:argCount(seg.Op)] {
			px, py := s.project(p)
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, py), max(maxY, py)
		}
	}
	left := int(math.Floor(float64(minX)))
	top := int(math.Floor(float64(minY)))
	w := int(math.Ceil(float64(maxX))) - left
	h := int(math.Ceil(float64(maxY))) - top
	if w <= 0 || h <= 0 || w > maxMaskSide || h > maxMaskSide {
		return glyphcache.GlyphData{Metrics: metrics}, nil
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	ox, oy := float32(left), float32(top)
	for i, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				r.ClosePath()
			}
			ax, ay := s.project(seg.Args[0])
			r.MoveTo(ax-ox, ay-oy)
		case sfnt.SegmentOpLineTo:
			ax, ay := s.project(seg.Args[0])
			r.LineTo(ax-ox, ay-oy)
		case sfnt.SegmentOpQuadTo:
			ax, ay := s.project(seg.Args[0])
			bx, by := s.project(seg.Args[1])
			r.QuadTo(ax-ox, ay-oy, bx-ox, by-oy)
		case sfnt.SegmentOpCubeTo:
			ax, ay := s.project(seg.Args[0])
			bx, by := s.project(seg.Args[1])
			cx, cy := s.project(seg.Args[2])
			r.CubeTo(ax-ox, ay-oy, bx-ox, by-oy, cx-ox, cy-oy)
		}
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	if !s.spec.Has(glyphcache.FlagAntialias) {
		for i, a := range mask.Pix {
			if a >= 0x80 {
				mask.Pix[i] = 0xff
			} else {
				mask.Pix[i] = 0
			}
		}
	}

	metrics.Left = clampInt16(left)
	metrics.Top = clampInt16(top)
	metrics.Width = uint16(w)
	metrics.Height = uint16(h)
	return glyphcache.GlyphData{Metrics: metrics, Image: mask.Pix}, nil
}

// FontMetrics reports line metrics with the ascent negative, as offsets
// from the baseline in a y-down space.
func (s *scaler) FontMetrics(glyphcache.StrikeSpec) (glyphcache.FontMetrics, error) {
	b := s.font.buffers.Get().(*sfnt.Buffer)
	defer s.font.buffers.Put(b)

	m, err := s.font.font.Metrics(b, s.ppem, s.hinting)
	if err != nil {
		return glyphcache.FontMetrics{}, err
	}
	return glyphcache.FontMetrics{
		Ascent:    -float32(m.Ascent) / 64,
		Descent:   float32(m.Descent) / 64,
		Leading:   float32(m.Height-m.Ascent-m.Descent) / 64,
		XHeight:   -float32(m.XHeight) / 64,
		CapHeight: -float32(m.CapHeight) / 64,
	}, nil
}

func argCount(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

func clampInt16(v int) int16 {
	return int16(max(math.MinInt16, min(v, math.MaxInt16)))
}
