// Package treewalk drives N ordered tree-entry iterators in parallel,
// synchronized on the minimum path, to diff or enumerate paths across
// one or more Git trees.
package treewalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
)

// EntryIterator is an ordered cursor over the (mode, name, id)
// triples of one tree, in git's canonical byte-lexicographic order.
// The Walker owns the cross-tree bookkeeping (cumulative path,
// parent back-reference, matches/matchShift tags); an EntryIterator
// only needs to know how to walk its own single level.
//
// Variants: the canonical on-disk tree parser (NewTreeIterator), the
// empty sentinel (NewEmptyIterator), and the directory-cache adapter
// (package dirindex).
type EntryIterator interface {
	// Eof reports whether the iterator has been exhausted.
	Eof() bool

	// Advance moves past the current entry. A no-op at Eof.
	Advance()

	// Name returns the current entry's own name, not a full path.
	Name() []byte

	// Mode returns the current entry's mode bits.
	Mode() filemode.FileMode

	// Hash returns the current entry's object id.
	Hash() plumbing.Hash

	// IsTree reports whether the current entry names a subtree.
	IsTree() bool

	// Subtree opens the current entry's tree object and returns a new
	// iterator over it, for use by enterSubtree.
	Subtree(db plumbing.ObjectDatabase) (EntryIterator, error)
}

// treeIterator is the canonical on-disk tree parser variant: it walks
// an already-decoded object.Tree's entries, which are stored in git
// tree order.
type treeIterator struct {
	entries []treeEntry
	pos     int
}

// treeEntry is the subset of object.TreeEntry the walker needs,
// defined here to avoid importing package object's parser from the
// iterator's hot path; NewTreeIterator copies each one out of a
// TreeEntrySource.
type treeEntry struct {
	name []byte
	mode filemode.FileMode
	hash plumbing.Hash
}

// TreeEntrySource supplies the (name, mode, hash) triples backing a
// canonical tree iterator, satisfied by the objectTree adapter over
// *object.Tree (see NewObjectTreeIterator).
type TreeEntrySource interface {
	EntryCount() int
	EntryAt(i int) (name string, mode filemode.FileMode, hash plumbing.Hash)
}

// NewTreeIterator builds the canonical tree parser variant over src.
func NewTreeIterator(src TreeEntrySource) EntryIterator {
	n := src.EntryCount()
	entries := make([]treeEntry, n)
	for i := 0; i < n; i++ {
		name, mode, hash := src.EntryAt(i)
		entries[i] = treeEntry{name: []byte(name), mode: mode, hash: hash}
	}
	return &treeIterator{entries: entries}
}

func (t *treeIterator) Eof() bool { return t.pos >= len(t.entries) }

func (t *treeIterator) Advance() {
	if !t.Eof() {
		t.pos++
	}
}

func (t *treeIterator) Name() []byte {
	if t.Eof() {
		return nil
	}
	return t.entries[t.pos].name
}

func (t *treeIterator) Mode() filemode.FileMode {
	if t.Eof() {
		return filemode.Empty
	}
	return t.entries[t.pos].mode
}

func (t *treeIterator) Hash() plumbing.Hash {
	if t.Eof() {
		return plumbing.ZeroHash
	}
	return t.entries[t.pos].hash
}

func (t *treeIterator) IsTree() bool {
	return !t.Eof() && t.entries[t.pos].mode.IsDir()
}

func (t *treeIterator) Subtree(db plumbing.ObjectDatabase) (EntryIterator, error) {
	return newObjectTreeIterator(db, t.Hash())
}

// emptyIterator is the empty-tree sentinel: Eof from construction,
// used at recursion exits where one of the N trees had no
// contribution under the current subtree.
type emptyIterator struct{}

// NewEmptyIterator returns the empty-tree sentinel.
func NewEmptyIterator() EntryIterator { return emptyIterator{} }

func (emptyIterator) Eof() bool                                          { return true }
func (emptyIterator) Advance()                                           {}
func (emptyIterator) Name() []byte                                       { return nil }
func (emptyIterator) Mode() filemode.FileMode                            { return filemode.Empty }
func (emptyIterator) Hash() plumbing.Hash                                { return plumbing.ZeroHash }
func (emptyIterator) IsTree() bool                                       { return false }
func (emptyIterator) Subtree(plumbing.ObjectDatabase) (EntryIterator, error) {
	return NewEmptyIterator(), nil
}
