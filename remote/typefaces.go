// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import (
	"sync"

	"github.com/luxfi/glyphcache"
)

// typefaceTable records the typefaces one side knows the other has.
type typefaceTable struct {
	mu    sync.RWMutex
	items map[glyphcache.FontID]Typeface
}

func newTypefaceTable() *typefaceTable {
	return &typefaceTable{
		items: make(map[glyphcache.FontID]Typeface),
	}
}

// Put inserts or replaces a typeface. It reports whether the id was new.
func (t *typefaceTable) Put(tf Typeface) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.items[tf.ID]
	t.items[tf.ID] = tf
	return !ok
}

// Get returns the typeface with the id, if it exists.
func (t *typefaceTable) Get(id glyphcache.FontID) (Typeface, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tf, ok := t.items[id]
	return tf, ok
}

// Len returns the number of known typefaces.
func (t *typefaceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Flush forgets every typeface.
func (t *typefaceTable) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[glyphcache.FontID]Typeface)
}
