// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GlyphRequest asks for a run of glyphs from one strike.
type GlyphRequest struct {
	Spec StrikeSpec
	IDs  []GlyphID
}

// PrepareGlyphs resolves every request concurrently, at most limit at a time
// (limit <= 0 means no bound). Result i holds the entries of reqs[i] in
// request order. The first strike lookup error cancels the remaining work.
func PrepareGlyphs(ctx context.Context, c StrikeCacher, factory ScalerFactory, reqs []GlyphRequest, limit int) ([][]*GlyphEntry, error) {
	out := make([][]*GlyphEntry, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ref, err := c.FindOrCreateStrike(req.Spec, factory)
			if err != nil {
				return err
			}
			defer ref.Release()
			out[i] = ref.Strike().Prepare(req.IDs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
