// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned for strike specs that cannot be rendered.
	ErrInvalidSpec = errors.New("invalid strike spec")

	// ErrClosed is returned by lookups on a closed StrikeCache.
	ErrClosed = errors.New("strike cache closed")

	// ErrNoScaler is returned when a strike must be created without a factory.
	ErrNoScaler = errors.New("no scaler factory")

	// ErrGlyphUnavailable is returned by scalers that have no data for a glyph.
	ErrGlyphUnavailable = errors.New("glyph unavailable")
)

// SpecError describes which StrikeSpec field failed validation.
//
// errors.Is(err, ErrInvalidSpec) holds for every SpecError.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid strike spec: %s %s", e.Field, e.Reason)
}

func (e *SpecError) Unwrap() error { return ErrInvalidSpec }
