// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package sfntscaler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/glyphcache"
)

// ErrUnknownFont is returned for specs naming a font not in the Library.
var ErrUnknownFont = errors.New("unknown font")

// Library dispatches scaler creation to registered fonts by FontID.
type Library struct {
	mu    sync.RWMutex
	fonts map[glyphcache.FontID]*Font
}

func NewLibrary() *Library {
	return &Library{fonts: make(map[glyphcache.FontID]*Font)}
}

// Add registers f, replacing any font with the same id.
func (l *Library) Add(f *Font) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fonts[f.id] = f
}

// Font returns the font registered as id.
func (l *Library) Font(id glyphcache.FontID) (*Font, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.fonts[id]
	return f, ok
}

// ScalerFactory builds scalers for any registered font.
func (l *Library) ScalerFactory() glyphcache.ScalerFactory {
	return func(spec glyphcache.StrikeSpec) (glyphcache.Scaler, error) {
		f, ok := l.Font(spec.FontID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFont, spec.FontID)
		}
		s, err := newScaler(f, spec)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
