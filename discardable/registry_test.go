package discardable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateHandleIsMonotonic(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	require.Zero(r.LastIssued())

	prev := HandleID(0)
	for range 100 {
		id := r.CreateHandle()
		require.Greater(id, prev)
		require.True(r.IsLocked(id))
		require.False(r.IsHandleDeleted(id))
		prev = id
	}
	require.Equal(prev, r.LastIssued())
	require.Equal(100, r.LockedCount())
}

func TestCreateHandleConcurrent(t *testing.T) {
	require := require.New(t)

	const (
		workers = 16
		each    = 200
	)
	r := NewRegistry()
	issued := make([][]HandleID, workers)

	var eg errgroup.Group
	for w := range workers {
		eg.Go(func() error {
			ids := make([]HandleID, each)
			for i := range ids {
				ids[i] = r.CreateHandle()
			}
			issued[w] = ids
			return nil
		})
	}
	require.NoError(eg.Wait())

	seen := make(map[HandleID]struct{}, workers*each)
	for _, ids := range issued {
		for i, id := range ids {
			if i > 0 {
				require.Greater(id, ids[i-1])
			}
			_, dup := seen[id]
			require.False(dup, "handle %d issued twice", id)
			seen[id] = struct{}{}
		}
	}
	require.Equal(HandleID(workers*each), r.LastIssued())
	for id := HandleID(1); id <= r.LastIssued(); id++ {
		require.Contains(seen, id)
	}
	require.Equal(workers*each, r.LockedCount())
}

func TestFirstHandleIsOne(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	require.Equal(HandleID(1), r.CreateHandle())
	require.True(r.IsHandleDeleted(0))
}

func TestUnlockAndDeleteAllScenario(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	h1 := r.CreateHandle()
	h2 := r.CreateHandle()
	h3 := r.CreateHandle()
	r.UnlockAll()

	require.True(r.LockHandle(h2))
	r.UnlockAndDeleteAll()

	require.True(r.IsHandleDeleted(h1))
	require.True(r.IsHandleDeleted(h2))
	require.True(r.IsHandleDeleted(h3))
	require.Equal(h3, r.Watermark())
	require.Zero(r.LockedCount())

	h4 := r.CreateHandle()
	require.Equal(HandleID(4), h4)
	require.False(r.IsHandleDeleted(h4))
}

func TestLockHandle(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	h1 := r.CreateHandle()
	r.UnlockAll()
	require.False(r.IsLocked(h1))

	require.True(r.LockHandle(h1))
	require.True(r.IsLocked(h1))

	// Never issued.
	require.False(r.LockHandle(h1 + 1))
	require.False(r.LockHandle(0))

	r.UnlockAndDeleteAll()
	require.False(r.LockHandle(h1))
	require.False(r.IsLocked(h1))
}

func TestUnlockAllDoesNotDelete(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	h := r.CreateHandle()
	r.UnlockAll()
	r.UnlockAll()

	require.False(r.IsHandleDeleted(h))
	require.False(r.DeleteHandle(h))
	require.Zero(r.Watermark())
	require.NotPanics(func() { r.AssertHandleValid(h) })
}

func TestDeleteHandleFollowsWatermark(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	h := r.CreateHandle()
	require.False(r.DeleteHandle(h))

	r.UnlockAndDeleteAll()
	require.True(r.DeleteHandle(h))
	require.Panics(func() { r.AssertHandleValid(h) })
}

func TestMissCounters(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.NotifyCacheMiss(MissGlyphImage)
			}
		}()
	}
	wg.Wait()
	r.NotifyCacheMiss(MissFontMetrics)
	r.NotifyCacheMiss(MissTypeCount)

	require.Equal(uint64(800), r.MissCount(MissGlyphImage))
	require.Equal(uint64(1), r.MissCount(MissFontMetrics))
	require.Zero(r.MissCount(MissTypeCount))

	counts := r.MissCounts()
	require.Equal(uint64(800), counts[MissGlyphImage])
	require.Zero(counts[MissGlyphPath])
	require.Equal("glyph_image", MissGlyphImage.String())
}

func TestNotifyReadFailure(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	n, last := r.ReadFailures()
	require.Zero(n)
	require.Zero(last)

	r.NotifyReadFailure(ReadFailureData{Handle: 3, Reason: "checksum mismatch", GlyphsTotal: 2})
	n, last = r.ReadFailures()
	require.Equal(uint64(1), n)
	require.Equal(HandleID(3), last.Handle)
	require.Equal("checksum mismatch", last.Reason)
}

func TestStrikePinner(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	h := r.CreateHandle()
	p := NewStrikePinner(h, r)

	id, ok := Handle(p)
	require.True(ok)
	require.Equal(h, id)
	require.False(p.CanDelete())

	r.UnlockAll()
	require.False(p.CanDelete())

	r.UnlockAndDeleteAll()
	require.True(p.CanDelete())
}
