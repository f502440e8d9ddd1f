package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/internal/test"
	"github.com/go-corelib/gitcore/plumbing"
)

func newTestCache(t *testing.T, limit, windowSize int64) *Cache {
	t.Helper()
	c, err := NewCache(Config{
		PackedGitLimit:      limit,
		PackedGitWindowSize: windowSize,
		DeltaBaseCacheLimit: defaultDeltaBaseCacheLimit,
	})
	require.NoError(t, err)
	return c
}

// TestWindowPressureScenario checks eviction under pressure: limit=16KB,
// windowSize=8KB, pack length 24KB. get at offsets 0, 8192, 16384:
// after the third call, openWindowCount=2, the window for offset 0
// has been evicted, residentBytes=16384.
func TestWindowPressureScenario(t *testing.T) {
	c := newTestCache(t, 16*1024, 8*1024)
	pack := &test.FakePack{HashValue: 1, Data: make([]byte, 24*1024)}

	var cur1, cur2, cur3 Cursor
	require.NoError(t, c.Get(&cur1, pack, 0))
	require.NoError(t, c.Get(&cur2, pack, 8192))
	require.NoError(t, c.Get(&cur3, pack, 16384))

	require.Equal(t, 2, c.OpenWindowCount())
	require.Equal(t, int64(16384), c.ResidentBytes())

	// The window covering offset 0 was evicted: a fresh get for it
	// must miss and reload rather than hit a stale entry.
	openBefore := pack.OpenCalls
	var cur4 Cursor
	require.NoError(t, c.Get(&cur4, pack, 0))
	require.Equal(t, 2, c.OpenWindowCount())
	require.GreaterOrEqual(t, pack.OpenCalls, openBefore)
}

func TestCacheBoundUnderRandomAccess(t *testing.T) {
	c := newTestCache(t, 32*1024, 4096)
	pack := &test.FakePack{HashValue: 7, Data: make([]byte, 200*1024)}

	offsets := []int64{0, 4096, 8192, 100 * 1024, 4096, 0, 50 * 1024, 8192, 199 * 1024}
	for _, off := range offsets {
		var cur Cursor
		require.NoError(t, c.Get(&cur, pack, off))
		require.LessOrEqual(t, c.ResidentBytes(), int64(32*1024))
		require.LessOrEqual(t, c.OpenWindowCount(), 32*1024/4096)
	}
}

func TestCachePin(t *testing.T) {
	c := newTestCache(t, 8192, 4096)
	pack := &test.FakePack{HashValue: 1, Data: bytes.Repeat([]byte("0123456789abcdef0123456789ABCDEF"), 512)}

	var pinned Cursor
	require.NoError(t, c.Get(&pinned, pack, 0))
	want := append([]byte(nil), pinned.Bytes()...)

	// Force eviction pressure with other windows; the pinned window's
	// index entry is evicted, but its bytes stay addressable through
	// its own cursor, unchanged.
	for _, off := range []int64{4096, 8192, 12288} {
		var cur Cursor
		require.NoError(t, c.Get(&cur, pack, off))
	}

	require.Equal(t, want, pinned.Bytes())
}

func TestReconfigureGeometryChangeEvictsAll(t *testing.T) {
	c := newTestCache(t, 16*1024, 4096)
	pack := &test.FakePack{HashValue: 1, Data: make([]byte, 16*1024)}

	var cur Cursor
	require.NoError(t, c.Get(&cur, pack, 0))
	require.Equal(t, 1, c.OpenWindowCount())

	require.NoError(t, c.Reconfigure(Config{PackedGitWindowSize: 8192}))
	require.Equal(t, 0, c.OpenWindowCount())
	require.Equal(t, int64(0), c.ResidentBytes())
}

func TestReconfigureLimitDecreasePrunesImmediately(t *testing.T) {
	c := newTestCache(t, 16*1024, 4096)
	pack := &test.FakePack{HashValue: 1, Data: make([]byte, 16*1024)}

	for _, off := range []int64{0, 4096, 8192} {
		var cur Cursor
		require.NoError(t, c.Get(&cur, pack, off))
	}
	require.Equal(t, int64(12*1024), c.ResidentBytes())

	require.NoError(t, c.Reconfigure(Config{PackedGitWindowSize: 4096, PackedGitLimit: 8192}))
	require.LessOrEqual(t, c.ResidentBytes(), int64(8192))
}

func TestReconfigureRejectsInvalidConfig(t *testing.T) {
	c := newTestCache(t, 16*1024, 4096)
	err := c.Reconfigure(Config{PackedGitWindowSize: 100})
	require.Error(t, err)
}

func TestPurgeClosesPack(t *testing.T) {
	c := newTestCache(t, 16*1024, 4096)
	pack := &test.FakePack{HashValue: 1, Data: make([]byte, 16*1024)}

	var cur Cursor
	require.NoError(t, c.Get(&cur, pack, 0))
	require.Equal(t, 1, c.OpenWindowCount())

	c.Purge(pack)
	require.Equal(t, 0, c.OpenWindowCount())
	require.Equal(t, 1, pack.CloseCalls)
}

func TestCacheOpenFailureIsIoError(t *testing.T) {
	c := newTestCache(t, 16*1024, 4096)
	pack := &test.FakePack{HashValue: 1, Data: make([]byte, 16*1024), FailOpen: true}

	var cur Cursor
	err := c.Get(&cur, pack, 0)
	require.Error(t, err)

	var ioErr *plumbing.IoError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, 0, c.openCount[pack])
}
