// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
)

// FontID identifies a typeface within a process.
type FontID uint32

// TransformClass is the coarsest class of the device transform.
type TransformClass uint8

const (
	TransformIdentity TransformClass = iota
	TransformTranslate
	TransformScaleTranslate
	TransformAffine
	TransformPerspective
)

// Flags select rasterization features.
type Flags uint16

const (
	FlagAntialias Flags = 1 << iota
	FlagSubpixel
	FlagLCD
	FlagEmbolden
	FlagLinearMetrics
)

// Hinting is the outline hinting level.
type Hinting uint8

const (
	HintingNone Hinting = iota
	HintingSlight
	HintingNormal
	HintingFull
)

// StrokeStyle describes outline stroking. A zero Width means fill.
type StrokeStyle struct {
	Width float32
	Miter float32
	Join  uint8
	Cap   uint8
}

// StrikeSpec identifies one font rendering configuration. It is a comparable
// value: two specs with equal fields address the same Strike.
type StrikeSpec struct {
	FontID    FontID
	Size      float32
	ScaleX    float32
	SkewX     float32
	Transform TransformClass
	Flags     Flags
	Hinting   Hinting
	Stroke    StrokeStyle
}

// NewStrikeSpec returns an antialiased, normally hinted, unscaled spec.
func NewStrikeSpec(font FontID, size float32) StrikeSpec {
	return StrikeSpec{
		FontID:  font,
		Size:    size,
		ScaleX:  1,
		Flags:   FlagAntialias,
		Hinting: HintingNormal,
	}
}

// Has reports whether every flag in f is set.
func (s StrikeSpec) Has(f Flags) bool { return s.Flags&f == f }

// Validate rejects specs that no scaler could render.
func (s StrikeSpec) Validate() error {
	switch {
	case !finite(s.Size) || s.Size <= 0:
		return &SpecError{Field: "Size", Reason: "must be positive and finite"}
	case !finite(s.ScaleX) || s.ScaleX <= 0:
		return &SpecError{Field: "ScaleX", Reason: "must be positive and finite"}
	case !finite(s.SkewX):
		return &SpecError{Field: "SkewX", Reason: "must be finite"}
	case s.Transform > TransformPerspective:
		return &SpecError{Field: "Transform", Reason: "unknown class"}
	case s.Hinting > HintingFull:
		return &SpecError{Field: "Hinting", Reason: "unknown level"}
	case !finite(s.Stroke.Width) || s.Stroke.Width < 0:
		return &SpecError{Field: "Stroke.Width", Reason: "must be non-negative and finite"}
	case !finite(s.Stroke.Miter) || s.Stroke.Miter < 0:
		return &SpecError{Field: "Stroke.Miter", Reason: "must be non-negative and finite"}
	}
	return nil
}

const specEncodedLen = 4 + 4*5 + 1 + 2 + 1 + 2

// AppendBinary appends the canonical little-endian encoding of s.
func (s StrikeSpec) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(s.FontID))
	b = appendFloat(b, s.Size)
	b = appendFloat(b, s.ScaleX)
	b = appendFloat(b, s.SkewX)
	b = appendFloat(b, s.Stroke.Width)
	b = appendFloat(b, s.Stroke.Miter)
	b = append(b, byte(s.Transform))
	b = binary.LittleEndian.AppendUint16(b, uint16(s.Flags))
	b = append(b, byte(s.Hinting), s.Stroke.Join, s.Stroke.Cap)
	return b
}

// Checksum is a 64-bit murmur3 hash of the canonical encoding. Equal specs
// always have equal checksums.
func (s StrikeSpec) Checksum() uint64 {
	var buf [specEncodedLen]byte
	return murmur3.Sum64(s.AppendBinary(buf[:0]))
}

func (s StrikeSpec) String() string {
	return fmt.Sprintf("font=%d size=%g scale=%g skew=%g xform=%d flags=%#x hint=%d stroke=%g",
		s.FontID, s.Size, s.ScaleX, s.SkewX, s.Transform, uint16(s.Flags), s.Hinting, s.Stroke.Width)
}

func appendFloat(b []byte, f float32) []byte {
	if f == 0 {
		f = 0 // -0 and +0 compare equal as map keys; encode them alike
	}
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
