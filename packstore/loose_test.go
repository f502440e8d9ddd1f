package packstore

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/plumbing"
)

func TestLooseRoundTrip(t *testing.T) {
	fs := memfs.New()
	l := newLooseStore(fs, "objects")

	payload := []byte("tree deadbeef\nparent cafebabe\n")
	id, err := l.put(plumbing.CommitObject, payload)
	require.NoError(t, err)
	require.Equal(t, plumbing.ComputeHash(plumbing.CommitObject, payload), id)

	require.True(t, l.has(id))

	typ, size, rc, err := l.open(id)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, plumbing.CommitObject, typ)
	require.Equal(t, int64(len(payload)), size)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestLooseOpenMissing(t *testing.T) {
	fs := memfs.New()
	l := newLooseStore(fs, "objects")

	_, _, _, err := l.open(plumbing.ZeroHash)
	require.ErrorIs(t, err, plumbing.ErrObjectNotFound)
	require.False(t, l.has(plumbing.ZeroHash))
}

func TestLoosePutIsIdempotent(t *testing.T) {
	fs := memfs.New()
	l := newLooseStore(fs, "objects")

	payload := []byte("blob content")
	id1, err := l.put(plumbing.BlobObject, payload)
	require.NoError(t, err)
	id2, err := l.put(plumbing.BlobObject, payload)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}
