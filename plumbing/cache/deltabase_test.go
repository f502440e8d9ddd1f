package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/internal/test"
)

func TestDeltaBaseCacheEvictsByBytes(t *testing.T) {
	d := NewDeltaBaseCache(10)
	pack := &test.FakePack{HashValue: 1}

	d.Put(pack, 0, make([]byte, 6))
	d.Put(pack, 100, make([]byte, 6))

	// The combined size (12) exceeds the 10-byte limit; the
	// least-recently-used entry (offset 0) must have been evicted.
	_, ok := d.Get(pack, 0)
	require.False(t, ok)

	v, ok := d.Get(pack, 100)
	require.True(t, ok)
	require.Len(t, v, 6)
}

func TestDeltaBaseCacheGetRefreshesRecency(t *testing.T) {
	d := NewDeltaBaseCache(10)
	pack := &test.FakePack{HashValue: 1}

	d.Put(pack, 0, make([]byte, 5))
	d.Put(pack, 100, make([]byte, 5))

	// Touch offset 0 so it becomes the most-recently-used entry.
	_, ok := d.Get(pack, 0)
	require.True(t, ok)

	d.Put(pack, 200, make([]byte, 5))

	_, ok = d.Get(pack, 100)
	require.False(t, ok, "offset 100 should have been evicted as least-recently-used")

	_, ok = d.Get(pack, 0)
	require.True(t, ok)
}

func TestDeltaBaseCacheClear(t *testing.T) {
	d := NewDeltaBaseCache(1024)
	pack := &test.FakePack{HashValue: 1}
	d.Put(pack, 0, make([]byte, 10))
	d.Clear()

	_, ok := d.Get(pack, 0)
	require.False(t, ok)
}
