// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
)

// ErrReadFailure is returned for batches that fail validation. The failure
// is also reported to the ClientManager.
var ErrReadFailure = errors.New("remote strike read failure")

// missScaler backs strikes materialized from remote data. It cannot compute
// anything; each lookup the server has not answered is counted as a miss.
type missScaler struct {
	handles discardable.ClientManager
}

func (s missScaler) ComputeGlyph(glyphcache.StrikeSpec, glyphcache.GlyphID) (glyphcache.GlyphData, error) {
	s.handles.NotifyCacheMiss(discardable.MissGlyphMetrics)
	return glyphcache.GlyphData{}, glyphcache.ErrGlyphUnavailable
}

func (s missScaler) FontMetrics(glyphcache.StrikeSpec) (glyphcache.FontMetrics, error) {
	s.handles.NotifyCacheMiss(discardable.MissFontMetrics)
	return glyphcache.FontMetrics{}, glyphcache.ErrGlyphUnavailable
}

// Client applies batches from a Server to a local StrikeCache.
type Client struct {
	cache   glyphcache.StrikeCacher
	handles discardable.ClientManager
	log     *glyphcache.Logger

	typefaces *typefaceTable

	mu       sync.Mutex
	byHandle map[discardable.HandleID]glyphcache.StrikeSpec
	bySpec   map[glyphcache.StrikeSpec]discardable.HandleID
}

// NewClient returns a Client materializing strikes into cache.
func NewClient(cache glyphcache.StrikeCacher, handles discardable.ClientManager, opts ...Option) *Client {
	cfg := newConfig(opts)
	return &Client{
		cache:     cache,
		handles:   handles,
		log:       cfg.logger,
		typefaces: newTypefaceTable(),
		byHandle:  make(map[discardable.HandleID]glyphcache.StrikeSpec),
		bySpec:    make(map[glyphcache.StrikeSpec]discardable.HandleID),
	}
}

// ScalerFactory returns the factory used for strikes the client creates. A
// lookup through it for a glyph the server never sent yields an empty entry
// and counts a miss.
func (c *Client) ScalerFactory() glyphcache.ScalerFactory {
	return func(glyphcache.StrikeSpec) (glyphcache.Scaler, error) {
		return missScaler{handles: c.handles}, nil
	}
}

// ReadStrikeData applies a batch. Strike data that fails validation is
// reported through NotifyReadFailure and stops the read with ErrReadFailure;
// strikes applied before it are kept.
func (c *Client) ReadStrikeData(b Batch) error {
	for _, tf := range b.Typefaces {
		c.typefaces.Put(tf)
	}
	for i := range b.Strikes {
		sd := &b.Strikes[i]
		if reason := c.validate(sd); reason != "" {
			c.handles.NotifyReadFailure(discardable.ReadFailureData{
				Handle:      sd.Handle,
				Reason:      reason,
				GlyphsTotal: len(sd.Glyphs),
			})
			return fmt.Errorf("%w: handle %d: %s", ErrReadFailure, sd.Handle, reason)
		}
		if err := c.apply(sd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) validate(sd *StrikeData) string {
	switch {
	case sd.Handle == 0:
		return "zero handle"
	case sd.Spec.Validate() != nil:
		return sd.Spec.Validate().Error()
	case sd.Checksum != sd.Sum():
		return "checksum mismatch"
	}
	if _, ok := c.typefaces.Get(sd.Spec.FontID); !ok {
		return fmt.Sprintf("unknown typeface %d", sd.Spec.FontID)
	}
	for _, g := range sd.Glyphs {
		if !g.Metrics.Format.Valid() {
			return fmt.Sprintf("glyph %d: unknown mask format %d", g.ID, g.Metrics.Format)
		}
	}
	return ""
}

func (c *Client) apply(sd *StrikeData) error {
	ref, err := c.bind(sd)
	if err != nil {
		return err
	}
	defer ref.Release()

	strike := ref.Strike()
	if sd.FontMetrics != nil {
		strike.SetFontMetrics(*sd.FontMetrics)
	}
	for _, g := range sd.Glyphs {
		strike.Insert(g.Entry())
	}
	return nil
}

// bind returns the local strike for sd, merging into the existing binding
// when its handle is still live and starting a new one otherwise.
func (c *Client) bind(sd *StrikeData) (*glyphcache.StrikeRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if spec, ok := c.byHandle[sd.Handle]; ok && !c.handles.IsHandleDeleted(sd.Handle) {
		if ref, ok := c.cache.FindStrike(spec); ok {
			return ref, nil
		}
	}

	ref, err := c.cache.FindOrCreateStrike(sd.Spec, c.ScalerFactory())
	if err != nil {
		return nil, err
	}
	ref.Strike().SetPinner(discardable.NewStrikePinner(sd.Handle, c.handles))

	if old, ok := c.bySpec[sd.Spec]; ok && old != sd.Handle {
		delete(c.byHandle, old)
	}
	c.byHandle[sd.Handle] = sd.Spec
	c.bySpec[sd.Spec] = sd.Handle
	return ref, nil
}

// Strike returns a pinned reference to the local strike bound to handle.
func (c *Client) Strike(handle discardable.HandleID) (*glyphcache.StrikeRef, bool) {
	c.mu.Lock()
	spec, ok := c.byHandle[handle]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.cache.FindStrike(spec)
}

// Glyph returns the entry for id from the strike bound to handle. A glyph the
// server never sent counts a glyph metrics miss; one that has a nonzero mask
// but arrived without its image counts a glyph image miss. It reports false
// if handle is not bound.
func (c *Client) Glyph(handle discardable.HandleID, id glyphcache.GlyphID) (*glyphcache.GlyphEntry, bool) {
	ref, ok := c.Strike(handle)
	if !ok {
		return nil, false
	}
	defer ref.Release()

	e := ref.GetOrCompute(id)
	if m := e.Metrics(); !e.Empty() && !e.HasImage() && m.Width > 0 && m.Height > 0 {
		c.handles.NotifyCacheMiss(discardable.MissGlyphImage)
	}
	return e, true
}

// Run applies batches from t until t is drained, ctx is done or the
// transport fails. Batches that fail validation are logged and skipped.
func (c *Client) Run(ctx context.Context, t Transport) error {
	for {
		b, err := t.Receive(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		if err := c.ReadStrikeData(b); err != nil {
			if !errors.Is(err, ErrReadFailure) {
				return err
			}
			c.log.Warn("skipping remote batch", "error", err)
		}
	}
}

// Reset forgets every typeface and handle binding. Cached strikes are left
// to the cache's budget.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typefaces.Flush()
	c.byHandle = make(map[discardable.HandleID]glyphcache.StrikeSpec)
	c.bySpec = make(map[glyphcache.StrikeSpec]discardable.HandleID)
}
