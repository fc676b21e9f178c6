// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package discardable tracks lease handles for strikes shared across a
// process boundary.
//
// The server side mints a handle for every strike it sends and locks it again
// each frame the strike is reused. The client side deletes handles when its
// copy of a strike may be dropped. Both sides share one ordered ledger: ids
// are issued in increasing order and deletion only ever advances a watermark,
// so a handle at or below the watermark is deleted for good.
package discardable

import "fmt"

// HandleID identifies a lease. Zero is never issued.
type HandleID uint64

// MissType classifies a client cache miss.
type MissType uint8

const (
	MissFontMetrics MissType = iota
	MissGlyphMetrics
	MissGlyphImage
	MissGlyphPath
	MissGlyphDrawable

	MissTypeCount
)

var missNames = [MissTypeCount]string{
	MissFontMetrics:   "font_metrics",
	MissGlyphMetrics:  "glyph_metrics",
	MissGlyphImage:    "glyph_image",
	MissGlyphPath:     "glyph_path",
	MissGlyphDrawable: "glyph_drawable",
}

func (t MissType) String() string {
	if t < MissTypeCount {
		return missNames[t]
	}
	return fmt.Sprintf("miss_type(%d)", uint8(t))
}

// ReadFailureData describes a batch the client could not apply.
type ReadFailureData struct {
	Handle      HandleID
	Reason      string
	BytesRead   int
	GlyphsRead  int
	GlyphsTotal int
}

// ServerManager is the handle surface used by the side that sends strikes.
type ServerManager interface {
	// CreateHandle issues a new handle, locked for the current frame.
	CreateHandle() HandleID

	// LockHandle locks id for the current frame. It returns false if id has
	// been deleted or was never issued.
	LockHandle(id HandleID) bool

	// IsHandleDeleted reports whether id has been deleted.
	IsHandleDeleted(id HandleID) bool

	// UnlockAll ends the frame without deleting anything.
	UnlockAll()

	// UnlockAndDeleteAll ends the frame and deletes every issued handle.
	UnlockAndDeleteAll()
}

// ClientManager is the handle surface used by the side that receives
// strikes.
type ClientManager interface {
	// DeleteHandle reports whether the strike bound to id may be dropped.
	DeleteHandle(id HandleID) bool

	// IsHandleDeleted reports whether id has been deleted.
	IsHandleDeleted(id HandleID) bool

	// NotifyCacheMiss records a lookup the received data could not serve.
	NotifyCacheMiss(t MissType)

	// NotifyReadFailure records a batch that could not be applied.
	NotifyReadFailure(data ReadFailureData)

	// AssertHandleValid panics if id has been deleted.
	AssertHandleValid(id HandleID)

	UnlockAll()
	UnlockAndDeleteAll()
}
