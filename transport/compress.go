// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spaolacci/murmur3"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/bytecache"
	"github.com/luxfi/glyphcache/remote"
)

// Codec selects the glyph image compression algorithm.
type Codec uint8

const (
	// CodecZstd favors ratio.
	CodecZstd Codec = iota + 1
	// CodecLZ4 favors speed.
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

var (
	// ErrUnknownCodec is returned by Compress for unsupported codecs.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrCorrupt is returned by Receive for images that fail to decompress.
	ErrCorrupt = errors.New("corrupt compressed image")
)

// Image block layout: [raw length uint32][compressed length uint32][data].
// A compressed length of 0 means data is stored raw.
const blockHeaderSize = 8

var _ remote.Transport = (*Compressed)(nil)

// Option configures a Compressed transport.
type Option func(*Compressed)

// WithBlockCache memoizes compressed images by content, up to maxBytes of
// compressed data. Glyphs re-sent under a new handle are then not compressed
// again.
func WithBlockCache(maxBytes int64) Option {
	return func(c *Compressed) {
		c.blocks = bytecache.New(maxBytes)
	}
}

// WithMaxImageBytes bounds the decompressed size of a received image.
// Blocks claiming more are rejected as corrupt before any allocation. Values
// <= 0 keep the default, glyphcache.DefaultMaxGlyphImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(c *Compressed) {
		if n > 0 {
			c.maxImageBytes = n
		}
	}
}

// Compressed wraps a Transport and compresses glyph images in flight. The
// batches handed to Send are not modified.
type Compressed struct {
	remote.Transport
	codec Codec

	maxImageBytes int64

	enc    *zstd.Encoder
	dec    *zstd.Decoder
	blocks *bytecache.Cache

	rawBytes  atomic.Uint64
	wireBytes atomic.Uint64
}

// Compress wraps t with codec.
func Compress(t remote.Transport, codec Codec, opts ...Option) (*Compressed, error) {
	c := &Compressed{
		Transport:     t,
		codec:         codec,
		maxImageBytes: glyphcache.DefaultMaxGlyphImageBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	switch codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		window := min(max(uint64(c.maxImageBytes), zstd.MinWindowSize), zstd.MaxWindowSize)
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderMaxMemory(uint64(c.maxImageBytes)),
			zstd.WithDecoderMaxWindow(window),
		)
		if err != nil {
			return nil, err
		}
		c.enc, c.dec = enc, dec
	case CodecLZ4:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
	}
	return c, nil
}

// Send compresses every glyph image and forwards the batch.
func (c *Compressed) Send(ctx context.Context, b remote.Batch) error {
	out := remote.Batch{
		Typefaces: b.Typefaces,
		Strikes:   make([]remote.StrikeData, len(b.Strikes)),
	}
	for i, sd := range b.Strikes {
		glyphs := make([]remote.GlyphPayload, len(sd.Glyphs))
		for j, g := range sd.Glyphs {
			if len(g.Image) > 0 {
				block, err := c.encode(g.Image)
				if err != nil {
					return fmt.Errorf("compressing glyph %d: %w", g.ID, err)
				}
				c.rawBytes.Add(uint64(len(g.Image)))
				c.wireBytes.Add(uint64(len(block)))
				g.Image = block
			}
			glyphs[j] = g
		}
		sd.Glyphs = glyphs
		out.Strikes[i] = sd
	}
	return c.Transport.Send(ctx, out)
}

// Receive forwards a batch with its glyph images restored.
func (c *Compressed) Receive(ctx context.Context) (remote.Batch, error) {
	b, err := c.Transport.Receive(ctx)
	if err != nil {
		return b, err
	}
	for i := range b.Strikes {
		glyphs := b.Strikes[i].Glyphs
		for j := range glyphs {
			if len(glyphs[j].Image) == 0 {
				continue
			}
			raw, err := c.decompress(glyphs[j].Image)
			if err != nil {
				return remote.Batch{}, fmt.Errorf("glyph %d of handle %d: %w", glyphs[j].ID, b.Strikes[i].Handle, err)
			}
			glyphs[j].Image = raw
		}
	}
	return b, nil
}

// BlockCacheStats reports block cache activity. It is zero without
// WithBlockCache.
func (c *Compressed) BlockCacheStats() bytecache.Stats {
	var st bytecache.Stats
	if c.blocks != nil {
		c.blocks.UpdateStats(&st)
	}
	return st
}

// Ratio returns wire bytes over raw bytes for the images sent so far.
func (c *Compressed) Ratio() float64 {
	raw := c.rawBytes.Load()
	if raw == 0 {
		return 0
	}
	return float64(c.wireBytes.Load()) / float64(raw)
}

// Close releases codec resources. The wrapped transport is not closed.
func (c *Compressed) Close() error {
	if c.enc != nil {
		_ = c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
	return nil
}

func (c *Compressed) encode(data []byte) ([]byte, error) {
	if c.blocks == nil {
		return c.compress(data)
	}
	key := murmur3.Sum64(data)
	if block, ok := c.blocks.Get(key); ok {
		return block, nil
	}
	block, err := c.compress(data)
	if err != nil {
		return nil, err
	}
	c.blocks.Set(key, block)
	return block, nil
}

func (c *Compressed) compress(data []byte) ([]byte, error) {
	var compressed []byte
	switch c.codec {
	case CodecZstd:
		compressed = c.enc.EncodeAll(data, nil)
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		block := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
		copy(block[blockHeaderSize:], data)
		return block, nil
	}
	block := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(block[4:], uint32(len(compressed)))
	copy(block[blockHeaderSize:], compressed)
	return block, nil
}

func (c *Compressed) decompress(block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	rawSize := binary.LittleEndian.Uint32(block[0:])
	compSize := binary.LittleEndian.Uint32(block[4:])
	body := block[blockHeaderSize:]
	if int64(rawSize) > c.maxImageBytes {
		return nil, fmt.Errorf("%w: image of %d bytes exceeds %d", ErrCorrupt, rawSize, c.maxImageBytes)
	}

	if compSize == 0 {
		if uint32(len(body)) != rawSize {
			return nil, fmt.Errorf("%w: stored size mismatch", ErrCorrupt)
		}
		return body, nil
	}
	if uint32(len(body)) != compSize {
		return nil, fmt.Errorf("%w: compressed size mismatch", ErrCorrupt)
	}

	switch c.codec {
	case CodecZstd:
		raw, err := c.dec.DecodeAll(body, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(raw)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return raw, nil
	default:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return raw, nil
	}
}
