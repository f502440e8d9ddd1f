package packstore

import (
	"io"
	"math/rand"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/cache"
)

func smallWindowConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.PackedGitWindowSize = 4096
	cfg.PackedGitLimit = 4096 * 4
	return cfg
}

func TestDatabaseOpensLooseObject(t *testing.T) {
	fs := memfs.New()
	db, err := NewDatabase(fs, "objects", smallWindowConfig())
	require.NoError(t, err)

	id, err := db.PutLoose(plumbing.BlobObject, []byte("hello"))
	require.NoError(t, err)
	require.True(t, db.HasObject(id))

	typ, size, rc, err := db.Open(id)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, plumbing.BlobObject, typ)
	require.Equal(t, int64(5), size)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestDatabaseOpensPackedObjectSpanningWindows(t *testing.T) {
	fs := memfs.New()
	cfg := smallWindowConfig()
	cfg.PackedGitWindowSize = 4096
	cfg.PackedGitLimit = 4096 * 4

	db, err := NewDatabase(fs, "objects", cfg)
	require.NoError(t, err)

	payload := make([]byte, 3*4096) // incompressible, so it spans several windows
	rand.New(rand.NewSource(1)).Read(payload)
	require.NoError(t, WritePack(fs, "p.pack", []RawObject{
		{Type: plumbing.BlobObject, Payload: payload},
	}))
	require.NoError(t, db.AddPack("p.pack"))

	id := plumbing.ComputeHash(plumbing.BlobObject, payload)
	require.True(t, db.HasObject(id))

	typ, size, rc, err := db.Open(id)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, plumbing.BlobObject, typ)
	require.Equal(t, int64(len(payload)), size)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDatabaseLooseShadowsPacked(t *testing.T) {
	fs := memfs.New()
	db, err := NewDatabase(fs, "objects", smallWindowConfig())
	require.NoError(t, err)

	payload := []byte("shared content")
	require.NoError(t, WritePack(fs, "p.pack", []RawObject{
		{Type: plumbing.BlobObject, Payload: payload},
	}))
	require.NoError(t, db.AddPack("p.pack"))

	id, err := db.PutLoose(plumbing.BlobObject, payload)
	require.NoError(t, err)

	typ, _, rc, err := db.Open(id)
	require.NoError(t, err)
	rc.Close()
	require.Equal(t, plumbing.BlobObject, typ)
}

func TestDatabaseOpenMissingReturnsNotFound(t *testing.T) {
	fs := memfs.New()
	db, err := NewDatabase(fs, "objects", smallWindowConfig())
	require.NoError(t, err)

	_, _, _, err = db.Open(plumbing.ZeroHash)
	require.ErrorIs(t, err, plumbing.ErrObjectNotFound)
	require.False(t, db.HasObject(plumbing.ZeroHash))
}
