// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package discardable

import "github.com/luxfi/glyphcache"

type strikePinner struct {
	id      HandleID
	handles ClientManager
}

// NewStrikePinner lets a strike's eviction follow the lifetime of handle id:
// the strike may be evicted once the handle is deleted.
func NewStrikePinner(id HandleID, handles ClientManager) glyphcache.Pinner {
	return &strikePinner{id: id, handles: handles}
}

func (p *strikePinner) CanDelete() bool {
	return p.handles.DeleteHandle(p.id)
}

// Handle returns the handle a pinner created by NewStrikePinner follows.
func Handle(p glyphcache.Pinner) (HandleID, bool) {
	sp, ok := p.(*strikePinner)
	if !ok {
		return 0, false
	}
	return sp.id, true
}
