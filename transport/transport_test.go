package transport

import (
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
	"github.com/luxfi/glyphcache/remote"
)

// stripeScaler draws compressible striped glyphs.
type stripeScaler struct{}

func (stripeScaler) ComputeGlyph(_ glyphcache.StrikeSpec, id glyphcache.GlyphID) (glyphcache.GlyphData, error) {
	img := make([]byte, 32*32)
	for i := range img {
		if (i/32)%4 == 0 {
			img[i] = byte(id)
		}
	}
	return glyphcache.GlyphData{
		Metrics: glyphcache.GlyphMetrics{AdvanceX: 10, Width: 32, Height: 32},
		Image:   img,
	}, nil
}

func stripeFactory(glyphcache.StrikeSpec) (glyphcache.Scaler, error) { return stripeScaler{}, nil }

func TestPipe(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	a, b := NewPipe(2)
	require.NoError(a.Send(ctx, remote.Batch{Typefaces: []remote.Typeface{{ID: 1}}}))
	require.NoError(a.Send(ctx, remote.Batch{Typefaces: []remote.Typeface{{ID: 2}}}))
	require.NoError(a.Close())

	require.ErrorIs(a.Send(ctx, remote.Batch{}), io.ErrClosedPipe)
	require.ErrorIs(b.Send(ctx, remote.Batch{}), io.ErrClosedPipe)

	got, err := b.Receive(ctx)
	require.NoError(err)
	require.Equal(glyphcache.FontID(1), got.Typefaces[0].ID)
	got, err = b.Receive(ctx)
	require.NoError(err)
	require.Equal(glyphcache.FontID(2), got.Typefaces[0].ID)

	_, err = b.Receive(ctx)
	require.ErrorIs(err, io.EOF)
	require.NoError(a.Close())
}

func TestPipeReceiveHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, b := NewPipe(0)
	_, err := b.Receive(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompressUnknownCodec(t *testing.T) {
	a, _ := NewPipe(0)
	_, err := Compress(a, Codec(9))
	require.ErrorIs(t, err, ErrUnknownCodec)
}

func TestCompressedRoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()

			handles := discardable.NewRegistry()
			server := remote.NewServer(glyphcache.NewStrikeCache(), handles, stripeFactory)
			local := glyphcache.NewStrikeCache()
			client := remote.NewClient(local, handles)

			a, b := NewPipe(1)
			sender, err := Compress(a, codec)
			require.NoError(err)
			defer sender.Close()
			receiver, err := Compress(b, codec)
			require.NoError(err)
			defer receiver.Close()

			spec := glyphcache.NewStrikeSpec(3, 32)
			sent, err := server.Glyphs(spec, []glyphcache.GlyphID{1, 2, 3})
			require.NoError(err)

			var g errgroup.Group
			g.Go(func() error { return client.Run(ctx, receiver) })
			require.NoError(server.Flush(ctx, sender))
			require.NoError(a.Close())
			require.NoError(g.Wait())

			require.Less(sender.Ratio(), 1.0)
			require.Greater(sender.Ratio(), 0.0)

			handle, ok := server.Handle(spec)
			require.True(ok)
			ref, ok := client.Strike(handle)
			require.True(ok)
			defer ref.Release()
			for _, want := range sent {
				got, ok := ref.Strike().Lookup(want.ID())
				require.True(ok)
				require.Equal(want.Image(), got.Image())
			}

			// The server's own entries were not touched by Send.
			require.Len(sent[0].Image(), 32*32)
			n, _ := handles.ReadFailures()
			require.Zero(n)
		})
	}
}

func TestCompressedRejectsCorruptImage(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	a, b := NewPipe(1)
	receiver, err := Compress(b, CodecLZ4)
	require.NoError(err)

	require.NoError(a.Send(ctx, remote.Batch{Strikes: []remote.StrikeData{{
		Handle: 1,
		Glyphs: []remote.GlyphPayload{{ID: 4, Image: []byte{1, 2, 3}}},
	}}}))
	_, err = receiver.Receive(ctx)
	require.ErrorIs(err, ErrCorrupt)
}

func TestCompressedRejectsOversizedHeader(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()

			a, b := NewPipe(1)
			receiver, err := Compress(b, codec)
			require.NoError(err)
			defer receiver.Close()

			// Claims 1 GiB of pixels behind a 4-byte body.
			forged := make([]byte, blockHeaderSize+4)
			binary.LittleEndian.PutUint32(forged[0:], 1<<30)
			binary.LittleEndian.PutUint32(forged[4:], 4)

			require.NoError(a.Send(ctx, remote.Batch{Strikes: []remote.StrikeData{{
				Handle: 1,
				Glyphs: []remote.GlyphPayload{{ID: 4, Image: forged}},
			}}}))
			_, err = receiver.Receive(ctx)
			require.ErrorIs(err, ErrCorrupt)
		})
	}
}

func TestMaxImageBytes(t *testing.T) {
	require := require.New(t)

	c, err := Compress(nil, CodecLZ4, WithMaxImageBytes(16))
	require.NoError(err)

	block, err := c.compress(make([]byte, 16))
	require.NoError(err)
	_, err = c.decompress(block)
	require.NoError(err)

	block, err = c.compress(make([]byte, 17))
	require.NoError(err)
	_, err = c.decompress(block)
	require.ErrorIs(err, ErrCorrupt)
}

func TestCompressStoresIncompressibleRaw(t *testing.T) {
	require := require.New(t)

	c, err := Compress(nil, CodecLZ4)
	require.NoError(err)

	data := []byte{7}
	block, err := c.compress(data)
	require.NoError(err)
	require.Len(block, blockHeaderSize+1)

	raw, err := c.decompress(block)
	require.NoError(err)
	require.Equal(data, raw)
}

func TestBlockCacheSkipsRecompression(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	a, b := NewPipe(2)
	sender, err := Compress(a, CodecZstd, WithBlockCache(1<<20))
	require.NoError(err)
	defer sender.Close()
	receiver, err := Compress(b, CodecZstd)
	require.NoError(err)
	defer receiver.Close()

	data, err := stripeScaler{}.ComputeGlyph(glyphcache.StrikeSpec{}, 5)
	require.NoError(err)
	batch := remote.Batch{Strikes: []remote.StrikeData{{
		Handle: 1,
		Glyphs: []remote.GlyphPayload{{ID: 5, Image: data.Image}},
	}}}

	for range 2 {
		require.NoError(sender.Send(ctx, batch))
		got, err := receiver.Receive(ctx)
		require.NoError(err)
		require.Equal(data.Image, got.Strikes[0].Glyphs[0].Image)
	}

	st := sender.BlockCacheStats()
	require.Equal(uint64(2), st.GetCalls)
	require.Equal(uint64(1), st.Misses)
	require.Equal(uint64(1), st.EntriesCount)
	require.Zero(receiver.BlockCacheStats().GetCalls)
}
