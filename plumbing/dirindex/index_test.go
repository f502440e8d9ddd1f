package dirindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
	"github.com/go-corelib/gitcore/plumbing/treewalk"
)

func hashN(n byte) plumbing.Hash {
	var h plumbing.Hash
	h[len(h)-1] = n
	return h
}

func TestIteratorMergesNestedEntries(t *testing.T) {
	idx := NewIndex([]Entry{
		{Path: "README.md", Mode: filemode.Regular, Hash: hashN(1)},
		{Path: "src/lib.go", Mode: filemode.Regular, Hash: hashN(2)},
		{Path: "src/nested/deep.go", Mode: filemode.Regular, Hash: hashN(3)},
		{Path: "zz.txt", Mode: filemode.Regular, Hash: hashN(4)},
	})

	root := NewIterator(idx)

	var names []string
	for !root.Eof() {
		names = append(names, string(root.Name()))
		root.Advance()
	}
	require.Equal(t, []string{"README.md", "src", "zz.txt"}, names)
}

func TestIteratorSubtreeDescent(t *testing.T) {
	idx := NewIndex([]Entry{
		{Path: "src/lib.go", Mode: filemode.Regular, Hash: hashN(2)},
		{Path: "src/nested/deep.go", Mode: filemode.Regular, Hash: hashN(3)},
	})

	root := NewIterator(idx)
	require.False(t, root.Eof())
	require.Equal(t, "src", string(root.Name()))
	require.True(t, root.IsTree())

	child, err := root.Subtree(nil)
	require.NoError(t, err)
	require.False(t, child.Eof())
	require.Equal(t, "lib.go", string(child.Name()))
	require.False(t, child.IsTree())

	child.Advance()
	require.False(t, child.Eof())
	require.Equal(t, "nested", string(child.Name()))
	require.True(t, child.IsTree())

	grandchild, err := child.Subtree(nil)
	require.NoError(t, err)
	require.Equal(t, "deep.go", string(grandchild.Name()))

	grandchild.Advance()
	require.True(t, grandchild.Eof())
}

func TestIteratorSatisfiesEntryIterator(t *testing.T) {
	idx := NewIndex([]Entry{{Path: "a", Mode: filemode.Regular, Hash: hashN(1)}})
	var _ treewalk.EntryIterator = NewIterator(idx)
}

func TestEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	root := NewIterator(idx)
	require.True(t, root.Eof())
}

// A directory name that is a proper prefix of a sibling file's name
// (e.g. "internal" next to "internal.go") must still sort under git's
// canonical tree order, which treats the directory as "internal/":
// '.' (0x2E) sorts before '/' (0x2F), so the file comes first.
func TestIteratorOrdersDirectoryAsPrefixOfSiblingFile(t *testing.T) {
	idx := NewIndex([]Entry{
		{Path: "a.txt", Mode: filemode.Regular, Hash: hashN(1)},
		{Path: "a/file.go", Mode: filemode.Regular, Hash: hashN(2)},
		{Path: "internal.go", Mode: filemode.Regular, Hash: hashN(3)},
		{Path: "internal/deep.go", Mode: filemode.Regular, Hash: hashN(4)},
	})

	root := NewIterator(idx)

	var names []string
	for !root.Eof() {
		names = append(names, string(root.Name()))
		root.Advance()
	}
	// Canonical tree order treats a directory name as having a
	// trailing '/': "a/" vs "a.txt" compares '.' (0x2E) < '/' (0x2F),
	// so the file sorts before its same-named-prefix sibling directory.
	require.Equal(t, []string{"a.txt", "a", "internal.go", "internal"}, names)
}
