package packstore

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/plumbing"
)

func TestWritePackAndScanIndex(t *testing.T) {
	fs := memfs.New()
	objects := []RawObject{
		{Type: plumbing.BlobObject, Payload: []byte("first blob")},
		{Type: plumbing.TreeObject, Payload: []byte("100644 a.txt\x00deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")},
	}
	require.NoError(t, WritePack(fs, "p.pack", objects))

	idx, err := scanPackIndex(fs, "p.pack")
	require.NoError(t, err)
	require.Len(t, idx, 2)

	for _, o := range objects {
		id := plumbing.ComputeHash(o.Type, o.Payload)
		loc, ok := idx[id]
		require.True(t, ok)
		require.Equal(t, o.Type, loc.typ)
		require.Equal(t, int64(len(o.Payload)), loc.size)
	}
}

func TestScanPackIndexRejectsBadMagic(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("bad.pack")
	require.NoError(t, err)
	_, err = f.Write([]byte("NOPE0000"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = scanPackIndex(fs, "bad.pack")
	require.Error(t, err)
}
