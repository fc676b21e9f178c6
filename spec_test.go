package glyphcache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrikeSpecValidate(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name  string
		edit  func(*StrikeSpec)
		field string
	}{
		{name: "valid", edit: func(*StrikeSpec) {}},
		{name: "zero size", edit: func(s *StrikeSpec) { s.Size = 0 }, field: "Size"},
		{name: "nan size", edit: func(s *StrikeSpec) { s.Size = nan }, field: "Size"},
		{name: "inf scale", edit: func(s *StrikeSpec) { s.ScaleX = inf }, field: "ScaleX"},
		{name: "nan skew", edit: func(s *StrikeSpec) { s.SkewX = nan }, field: "SkewX"},
		{name: "bad transform", edit: func(s *StrikeSpec) { s.Transform = TransformPerspective + 1 }, field: "Transform"},
		{name: "bad hinting", edit: func(s *StrikeSpec) { s.Hinting = HintingFull + 1 }, field: "Hinting"},
		{name: "negative stroke", edit: func(s *StrikeSpec) { s.Stroke.Width = -1 }, field: "Stroke.Width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			spec := NewStrikeSpec(1, 12)
			tt.edit(&spec)
			err := spec.Validate()
			if tt.field == "" {
				require.NoError(err)
				return
			}
			require.ErrorIs(err, ErrInvalidSpec)
			var specErr *SpecError
			require.ErrorAs(err, &specErr)
			require.Equal(tt.field, specErr.Field)
		})
	}
}

func TestStrikeSpecChecksum(t *testing.T) {
	require := require.New(t)

	a := NewStrikeSpec(4, 12)
	b := NewStrikeSpec(4, 12)
	require.Equal(a, b)
	require.Equal(a.Checksum(), b.Checksum())
	require.Len(a.AppendBinary(nil), specEncodedLen)

	b.Flags |= FlagSubpixel
	require.NotEqual(a.Checksum(), b.Checksum())
	require.True(b.Has(FlagAntialias | FlagSubpixel))
	require.False(a.Has(FlagSubpixel))

	// Signed zeros are the same map key and hash alike.
	pos, neg := a, a
	neg.SkewX = float32(math.Copysign(0, -1))
	require.Equal(pos, neg)
	require.Equal(pos.Checksum(), neg.Checksum())
}

func TestGlyphEntrySize(t *testing.T) {
	require := require.New(t)

	e := NewGlyphEntry(3, GlyphData{Image: make([]byte, 10)})
	require.Equal(int64(glyphEntryOverhead+10), e.ByteSize())
	require.True(e.HasImage())
	require.False(e.Empty())

	e = NewGlyphEntry(3, GlyphData{Image: make([]byte, 10), ByteSize: 500})
	require.Equal(int64(500), e.ByteSize())

	e = NewEmptyGlyphEntry(4)
	require.True(e.Empty())
	require.Equal(GlyphID(4), e.ID())
	require.Equal(int64(glyphEntryOverhead), e.ByteSize())
}
