// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remote shares strikes between a process that rasterizes glyphs and
// a process that draws them.
//
// A Server computes glyphs through its local StrikeCache and records, per
// strike, what the client has already been sent. Each frame WriteStrikeData
// collects the deltas into a Batch. A Client applies batches to its own
// StrikeCache; strikes it materializes stay cached until their handle is
// deleted.
package remote

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
)

// remoteStrike is the server's record of one strike as the client sees it.
type remoteStrike struct {
	handle discardable.HandleID
	spec   glyphcache.StrikeSpec

	// frame is the last frame the handle was locked in.
	frame uint64

	// known holds glyphs sent or pending.
	known       map[glyphcache.GlyphID]struct{}
	pending     []*glyphcache.GlyphEntry
	full        bool
	metrics     *glyphcache.FontMetrics
	metricsSent bool
}

func (rs *remoteStrike) queue(e *glyphcache.GlyphEntry) {
	if _, ok := rs.known[e.ID()]; ok {
		return
	}
	rs.known[e.ID()] = struct{}{}
	rs.pending = append(rs.pending, e)
}

func (rs *remoteStrike) hasPending() bool {
	return rs.full || len(rs.pending) > 0 || rs.metrics != nil
}

// Server tracks which strikes and glyphs a single client holds. Calls are
// serialized.
type Server struct {
	cache   glyphcache.StrikeCacher
	handles discardable.ServerManager
	factory glyphcache.ScalerFactory
	log     *glyphcache.Logger

	maxEntries int

	mu               sync.Mutex
	frame            uint64
	strikes          map[glyphcache.StrikeSpec]*remoteStrike
	typefaces        *typefaceTable
	pendingTypefaces []Typeface
}

// NewServer returns a Server computing glyphs with factory-built scalers
// through cache.
func NewServer(
	cache glyphcache.StrikeCacher,
	handles discardable.ServerManager,
	factory glyphcache.ScalerFactory,
	opts ...Option,
) *Server {
	cfg := newConfig(opts)
	return &Server{
		cache:      cache,
		handles:    handles,
		factory:    factory,
		log:        cfg.logger,
		maxEntries: cfg.maxEntries,
		strikes:    make(map[glyphcache.StrikeSpec]*remoteStrike),
		typefaces:  newTypefaceTable(),
	}
}

// Glyphs returns the entries for ids and queues every glyph the client does
// not hold yet. If the client deleted the strike since it was last used, the
// strike is re-sent under a new handle together with every glyph sent
// before.
func (s *Server) Glyphs(spec glyphcache.StrikeSpec, ids []glyphcache.GlyphID) ([]*glyphcache.GlyphEntry, error) {
	ref, err := s.cache.FindOrCreateStrike(spec, s.factory)
	if err != nil {
		return nil, err
	}
	defer ref.Release()
	strike := ref.Strike()
	entries := strike.Prepare(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.trackLocked(strike)
	for _, e := range entries {
		rs.queue(e)
	}
	if !rs.metricsSent {
		if fm, ok := strike.FontMetrics(); ok {
			rs.metrics = &fm
			rs.metricsSent = true
		}
	}
	return entries, nil
}

func (s *Server) trackLocked(strike *glyphcache.Strike) *remoteStrike {
	spec := strike.Spec()
	rs, ok := s.strikes[spec]
	switch {
	case !ok:
		return s.createLocked(spec)
	case rs.frame == s.frame:
		return rs
	case s.handles.LockHandle(rs.handle):
		rs.frame = s.frame
		return rs
	}

	// The client dropped its copy; start over and send everything again.
	resend := make([]glyphcache.GlyphID, 0, len(rs.known))
	for id := range rs.known {
		resend = append(resend, id)
	}
	slices.Sort(resend)
	stale := rs.handle

	rs = s.createLocked(spec)
	for _, id := range resend {
		rs.queue(strike.GetOrCompute(id))
	}
	s.log.Debug("remote strike re-sent",
		"font", spec.FontID,
		"staleHandle", uint64(stale),
		"handle", uint64(rs.handle),
		"glyphs", len(resend),
	)
	return rs
}

func (s *Server) createLocked(spec glyphcache.StrikeSpec) *remoteStrike {
	rs := &remoteStrike{
		handle: s.handles.CreateHandle(),
		spec:   spec,
		frame:  s.frame,
		known:  make(map[glyphcache.GlyphID]struct{}),
		full:   true,
	}
	s.strikes[spec] = rs
	if tf := (Typeface{ID: spec.FontID}); s.typefaces.Put(tf) {
		s.pendingTypefaces = append(s.pendingTypefaces, tf)
	}
	if len(s.strikes) > s.maxEntries {
		s.pruneLocked()
	}
	return rs
}

// pruneLocked drops strikes whose handle the client deleted and that have
// nothing pending in this frame.
func (s *Server) pruneLocked() {
	before := len(s.strikes)
	for spec, rs := range s.strikes {
		if rs.frame == s.frame || rs.hasPending() {
			continue
		}
		if s.handles.IsHandleDeleted(rs.handle) {
			delete(s.strikes, spec)
		}
	}
	if n := before - len(s.strikes); n > 0 {
		s.log.Debug("remote strikes pruned", "pruned", n, "remaining", len(s.strikes))
	}
}

// WriteStrikeData collects everything pending into a batch and ends the
// frame. It reports false if there was nothing to send.
func (s *Server) WriteStrikeData() (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := Batch{Typefaces: s.pendingTypefaces}
	s.pendingTypefaces = nil

	for _, rs := range s.strikes {
		if !rs.hasPending() {
			continue
		}
		data := StrikeData{
			Handle:      rs.handle,
			Spec:        rs.spec,
			Full:        rs.full,
			FontMetrics: rs.metrics,
			Glyphs:      make([]GlyphPayload, len(rs.pending)),
		}
		for i, e := range rs.pending {
			data.Glyphs[i] = payloadOf(e)
		}
		data.Seal()
		batch.Strikes = append(batch.Strikes, data)

		rs.pending = nil
		rs.full = false
		rs.metrics = nil
	}
	slices.SortFunc(batch.Strikes, func(a, b StrikeData) int { return cmp.Compare(a.Handle, b.Handle) })

	s.frame++
	return batch, !batch.Empty()
}

// Flush sends the pending batch, if any, over t.
func (s *Server) Flush(ctx context.Context, t Transport) error {
	batch, ok := s.WriteStrikeData()
	if !ok {
		return nil
	}
	return t.Send(ctx, batch)
}

// Len returns the number of tracked remote strikes.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.strikes)
}

// Handle returns the handle currently bound to spec.
func (s *Server) Handle(spec glyphcache.StrikeSpec) (discardable.HandleID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.strikes[spec]
	if !ok {
		return 0, false
	}
	return rs.handle, true
}

// Reset forgets every strike and typeface, as after connecting a new client.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strikes = make(map[glyphcache.StrikeSpec]*remoteStrike)
	s.typefaces.Flush()
	s.pendingTypefaces = nil
}
