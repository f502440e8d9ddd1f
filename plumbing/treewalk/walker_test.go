package treewalk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
)

func hashN(n byte) plumbing.Hash {
	var h plumbing.Hash
	h[len(h)-1] = n
	return h
}

type fakeEntry struct {
	name string
	mode filemode.FileMode
	hash plumbing.Hash
}

type fakeSource struct{ entries []fakeEntry }

func (s fakeSource) EntryCount() int { return len(s.entries) }
func (s fakeSource) EntryAt(i int) (string, filemode.FileMode, plumbing.Hash) {
	e := s.entries[i]
	return e.name, e.mode, e.hash
}

func tree(entries ...fakeEntry) EntryIterator {
	return NewTreeIterator(fakeSource{entries: entries})
}

// TestEmptyWalk checks the walk of zero trees terminates immediately.
func TestEmptyWalk(t *testing.T) {
	w := NewWalker()
	require.Equal(t, 0, w.GetTreeCount())
	ok, err := w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

// TestSingleTreeTwoFiles walks one tree with two leaf entries.
func TestSingleTreeTwoFiles(t *testing.T) {
	w := NewWalker()
	w.SetRecursive(true)
	w.AddTree(nil, tree(
		fakeEntry{name: "a", mode: filemode.Regular, hash: hashN(1)},
		fakeEntry{name: "b", mode: filemode.Regular, hash: hashN(2)},
	))

	var paths []string
	for {
		ok, err := w.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		paths = append(paths, w.GetPathString())
		if w.GetPathString() == "a" {
			require.Equal(t, hashN(1), w.GetObjectId(0))
		} else {
			require.Equal(t, hashN(2), w.GetObjectId(0))
		}
	}
	require.Equal(t, []string{"a", "b"}, paths)
}

// TestTwoWayDiff walks two trees in lockstep and reports the divergence.
func TestTwoWayDiff(t *testing.T) {
	w := NewWalker()
	w.SetRecursive(true)
	w.AddTree(nil, tree(fakeEntry{name: "f", mode: filemode.Regular, hash: hashN(1)}))
	w.AddTree(nil, tree(
		fakeEntry{name: "f", mode: filemode.Regular, hash: hashN(2)},
		fakeEntry{name: "g", mode: filemode.Regular, hash: hashN(3)},
	))

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "f", w.GetPathString())
	require.Equal(t, hashN(1), w.GetObjectId(0))
	require.Equal(t, hashN(2), w.GetObjectId(1))
	require.False(t, w.IdEqual(0, 1))

	ok, err = w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "g", w.GetPathString())
	require.Equal(t, plumbing.ZeroHash, w.GetObjectId(0))
	require.Equal(t, hashN(3), w.GetObjectId(1))
	require.False(t, w.IdEqual(0, 1))

	ok, err = w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

// subtreeSource lets a fakeEntry's Subtree() resolve to a literal
// child EntryIterator without a real object database.
type literalTreeIterator struct {
	EntryIterator
	child EntryIterator
}

func (l *literalTreeIterator) Subtree(plumbing.ObjectDatabase) (EntryIterator, error) {
	return l.child, nil
}

// TestSubtreeRecursion descends into a subtree automatically when recursive.
func TestSubtreeRecursion(t *testing.T) {
	child := tree(fakeEntry{name: "x", mode: filemode.Regular, hash: hashN(9)})
	root := &literalTreeIterator{
		EntryIterator: tree(fakeEntry{name: "d", mode: filemode.Dir}),
		child:         child,
	}

	w := NewWalker()
	w.SetRecursive(true)
	w.AddTree(nil, root)

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "d/x", w.GetPathString())
	require.Equal(t, hashN(9), w.GetObjectId(0))
	require.False(t, w.IsSubtree())

	ok, err = w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubtreeNonRecursiveRequiresManualEnter(t *testing.T) {
	child := tree(fakeEntry{name: "x", mode: filemode.Regular, hash: hashN(9)})
	root := &literalTreeIterator{
		EntryIterator: tree(fakeEntry{name: "d", mode: filemode.Dir}),
		child:         child,
	}

	w := NewWalker()
	w.AddTree(nil, root)

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "d", w.GetPathString())
	require.True(t, w.IsSubtree())

	ok, err = w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubtreeManualEnter(t *testing.T) {
	child := tree(fakeEntry{name: "x", mode: filemode.Regular, hash: hashN(9)})
	root := &literalTreeIterator{
		EntryIterator: tree(fakeEntry{name: "d", mode: filemode.Dir}),
		child:         child,
	}

	w := NewWalker()
	w.AddTree(nil, root)

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, w.EnterSubtree())

	ok, err = w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "d/x", w.GetPathString())
}

func TestOrderingIsStrictlyAscending(t *testing.T) {
	w := NewWalker()
	w.SetRecursive(true)
	w.AddTree(nil, tree(
		fakeEntry{name: "alpha", mode: filemode.Regular, hash: hashN(1)},
		fakeEntry{name: "beta", mode: filemode.Regular, hash: hashN(2)},
		fakeEntry{name: "gamma", mode: filemode.Regular, hash: hashN(3)},
	))

	var last string
	first := true
	for {
		ok, err := w.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		if !first {
			require.Less(t, last, w.GetPathString())
		}
		last = w.GetPathString()
		first = false
	}
}

func TestPostOrderDeliversSubtreeAfterChildren(t *testing.T) {
	child := tree(fakeEntry{name: "x", mode: filemode.Regular, hash: hashN(9)})
	root := &literalTreeIterator{
		EntryIterator: tree(fakeEntry{name: "d", mode: filemode.Dir}),
		child:         child,
	}

	w := NewWalker()
	w.SetRecursive(true)
	w.SetPostOrder(true)
	w.AddTree(nil, root)

	var deliveries []string
	for {
		ok, err := w.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		label := w.GetPathString()
		if w.IsPostChildren() {
			label += "(post)"
		}
		deliveries = append(deliveries, label)
	}
	require.Equal(t, []string{"d/x", "d(post)"}, deliveries)
}

func TestFilterStopWalk(t *testing.T) {
	w := NewWalker()
	w.SetRecursive(true)
	w.AddTree(nil, tree(
		fakeEntry{name: "a", mode: filemode.Regular, hash: hashN(1)},
		fakeEntry{name: "b", mode: filemode.Regular, hash: hashN(2)},
	))
	w.SetFilter(stopAfterFirst{})

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", w.GetPathString())

	ok, err = w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

type stopAfterFirst struct{ seen bool }

func (f stopAfterFirst) Include(w *Walker) (bool, error) {
	if w.GetPathString() == "b" {
		return false, StopWalk
	}
	return true, nil
}
func (stopAfterFirst) ShouldBeRecursive() bool { return false }

func TestPathFilter(t *testing.T) {
	w := NewWalker()
	w.AddTree(nil, &literalTreeIterator{
		EntryIterator: tree(
			fakeEntry{name: "docs", mode: filemode.Dir},
			fakeEntry{name: "src", mode: filemode.Dir},
		),
		child: tree(fakeEntry{name: "main.go", mode: filemode.Regular, hash: hashN(1)}),
	})
	w.SetFilter(NewPathFilter("src"))
	require.True(t, w.recursive) // PathFilter.ShouldBeRecursive folded in

	ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "src/main.go", w.GetPathString())

	ok, err = w.Next()
	require.NoError(t, err)
	require.False(t, ok)
}
