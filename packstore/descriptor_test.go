package packstore

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"
)

func TestFileDescriptorReadAt(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("pack.bin")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello, pack store"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	desc, err := NewFileDescriptor(fs, "pack.bin", 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), desc.Hash())
	require.Equal(t, int64(len("hello, pack store")), desc.Length())

	require.NoError(t, desc.CacheOpen())
	defer desc.CacheClose()

	buf := make([]byte, 5)
	n, err := desc.ReadAt(buf, 7)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "pack ", string(buf))
}

func TestFileDescriptorReadAtBeforeOpenFails(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("pack.bin")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	desc, err := NewFileDescriptor(fs, "pack.bin", 1)
	require.NoError(t, err)

	buf := make([]byte, 1)
	_, err = desc.ReadAt(buf, 0)
	require.ErrorIs(t, err, errPackNotOpen)
}

func TestFileDescriptorMmapWholeFileStrategy(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("pack.bin")
	require.NoError(t, err)
	_, err = f.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	desc, err := NewFileDescriptor(fs, "pack.bin", 1)
	require.NoError(t, err)
	require.NoError(t, desc.CacheOpen())
	defer desc.CacheClose()

	data, err := desc.Mmap(2, 3)
	require.NoError(t, err)
	require.Equal(t, "234", string(data))

	_, err = desc.Mmap(8, 5)
	require.Error(t, err)
}

func TestFileDescriptorCacheCloseDropsWholeFileBuffer(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("pack.bin")
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	desc, err := NewFileDescriptor(fs, "pack.bin", 1)
	require.NoError(t, err)
	require.NoError(t, desc.CacheOpen())

	_, err = desc.Mmap(0, 3)
	require.NoError(t, err)

	require.NoError(t, desc.CacheClose())

	_, err = desc.Mmap(0, 3)
	require.ErrorIs(t, err, errPackNotOpen)
}
