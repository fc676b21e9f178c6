// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package discardable

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/time/rate"

	"github.com/luxfi/glyphcache"
)

var (
	_ ServerManager = (*Registry)(nil)
	_ ClientManager = (*Registry)(nil)
)

// missLogInterval throttles miss logging; counters are always exact.
const missLogInterval = time.Second

// Registry is the handle ledger shared by both roles. Callers usually hold it
// through the narrower ServerManager or ClientManager interface.
type Registry struct {
	mu        sync.Mutex
	last      HandleID
	watermark HandleID
	locked    *roaring64.Bitmap

	misses       [MissTypeCount]atomic.Uint64
	readFailures uint64
	lastFailure  ReadFailureData

	log     *glyphcache.Logger
	missLog rate.Sometimes
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *glyphcache.Logger) Option {
	return func(r *Registry) {
		r.log = logger
	}
}

// NewRegistry creates an empty ledger. The first issued handle is 1.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		locked:  roaring64.New(),
		missLog: rate.Sometimes{First: 1, Interval: missLogInterval},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = glyphcache.NoopLogger()
	}
	return r
}

// CreateHandle issues the next handle and locks it.
func (r *Registry) CreateHandle() HandleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == math.MaxUint64 {
		panic("discardable: handle space exhausted")
	}
	r.last++
	r.locked.Add(uint64(r.last))
	return r.last
}

// LockHandle locks a live handle for the current frame.
func (r *Registry) LockHandle(id HandleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id <= r.watermark || id > r.last {
		return false
	}
	r.locked.Add(uint64(id))
	return true
}

// IsHandleDeleted reports whether id is at or below the deletion watermark.
func (r *Registry) IsHandleDeleted(id HandleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return id <= r.watermark
}

// DeleteHandle reports whether the strike bound to id may be dropped. Handles
// are deleted in bulk by UnlockAndDeleteAll; this only queries that state.
func (r *Registry) DeleteHandle(id HandleID) bool {
	return r.IsHandleDeleted(id)
}

// AssertHandleValid panics if id has been deleted.
func (r *Registry) AssertHandleValid(id HandleID) {
	if r.IsHandleDeleted(id) {
		panic("discardable: use of deleted handle")
	}
}

// UnlockAll clears the locked set. Nothing is deleted.
func (r *Registry) UnlockAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked.Clear()
}

// UnlockAndDeleteAll clears the locked set and deletes every issued handle.
// Handles created afterwards are live.
func (r *Registry) UnlockAndDeleteAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked.Clear()
	r.watermark = r.last
	r.log.Debug("handles deleted", "watermark", uint64(r.watermark))
}

// IsLocked reports whether id is locked in the current frame.
func (r *Registry) IsLocked(id HandleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked.Contains(uint64(id))
}

// LockedCount returns the number of locked handles.
func (r *Registry) LockedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.locked.GetCardinality())
}

// Watermark returns the highest deleted handle, 0 if none.
func (r *Registry) Watermark() HandleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watermark
}

// LastIssued returns the most recently issued handle, 0 if none.
func (r *Registry) LastIssued() HandleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// NotifyCacheMiss counts a miss of type t. Unknown types are ignored.
func (r *Registry) NotifyCacheMiss(t MissType) {
	if t >= MissTypeCount {
		return
	}
	n := r.misses[t].Add(1)
	r.missLog.Do(func() {
		r.log.Debug("remote glyph cache miss", "type", t.String(), "count", n)
	})
}

// MissCount returns the number of misses of type t.
func (r *Registry) MissCount(t MissType) uint64 {
	if t >= MissTypeCount {
		return 0
	}
	return r.misses[t].Load()
}

// MissCounts returns the miss counters indexed by MissType.
func (r *Registry) MissCounts() [MissTypeCount]uint64 {
	var out [MissTypeCount]uint64
	for i := range out {
		out[i] = r.misses[i].Load()
	}
	return out
}

// NotifyReadFailure records a batch that could not be applied.
func (r *Registry) NotifyReadFailure(data ReadFailureData) {
	r.mu.Lock()
	r.readFailures++
	r.lastFailure = data
	r.mu.Unlock()

	r.log.Warn("remote strike read failure",
		"handle", uint64(data.Handle),
		"reason", data.Reason,
		"bytesRead", data.BytesRead,
		"glyphsRead", data.GlyphsRead,
		"glyphsTotal", data.GlyphsTotal,
	)
}

// ReadFailures returns the failure count and the most recent failure.
func (r *Registry) ReadFailures() (uint64, ReadFailureData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readFailures, r.lastFailure
}
