// Package dirindex provides a minimal, read-only reader for the
// flattened, path-sorted directory-cache index: a flat array of
// (mode, path, stage, id) entries plus a parallel tree-of-subtrees
// structure, enough for the tree walker to consume it as one more
// EntryIterator variant. Writing the index is out of scope.
package dirindex

import (
	"sort"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
	"github.com/go-corelib/gitcore/plumbing/treewalk"
)

// Stage disambiguates conflicting entries during a merge: 0 is
// resolved, 1-3 are the conflict sides (base/ours/theirs).
type Stage uint8

const (
	StageResolved Stage = 0
	StageBase     Stage = 1
	StageOurs     Stage = 2
	StageTheirs   Stage = 3
)

// Entry is one record of the flat, path-sorted directory-cache array.
type Entry struct {
	Mode  filemode.FileMode
	Path  string
	Stage Stage
	Hash  plumbing.Hash
}

// Index is the flat sorted entry array plus the parallel
// tree-of-subtrees structure synthesizing hierarchical subtree
// entries from it, synthesizing a hierarchical EntryIterator over a
// flat, already-sorted index.
type Index struct {
	entries []Entry
	root    *subtree
}

// NewIndex builds an Index over entries, which must already be sorted
// by path (the on-disk index's own invariant; NewIndex does not
// re-sort them, matching DecodeTree's contract for tree objects).
func NewIndex(entries []Entry) *Index {
	idx := &Index{entries: entries}
	idx.root = &subtree{prefix: ""}
	idx.root.entrySpan = [2]int{0, len(entries)}
	buildChildren(idx.root, entries)
	return idx
}

// subtree is one node of the tree-of-subtrees structure: the span of
// flat entries beneath it (including nested subtrees), its own direct
// child subtrees, and a tree object id that this reader never fills
// in, so GetObjectId returns ZeroHash. This reader never mutates the
// index, so IsValid is always true.
type subtree struct {
	name      string
	prefix    string // full path prefix of this subtree's children, e.g. "d/"
	entrySpan [2]int // [start, end) into Index.entries
	children  []*subtree
	hash      plumbing.Hash
}

func (s *subtree) EntrySpan() (int, int)      { return s.entrySpan[0], s.entrySpan[1] }
func (s *subtree) IsValid() bool              { return true }
func (s *subtree) GetObjectId() plumbing.Hash { return s.hash }

// buildChildren groups parent's entry span into direct child
// subtrees by scanning path components after parent.prefix; entries
// are pre-sorted, so each child's span is contiguous.
func buildChildren(parent *subtree, entries []Entry) {
	start, end := parent.EntrySpan()
	i := start
	for i < end {
		name, isDir := firstComponent(entries[i].Path, parent.prefix)
		if !isDir {
			i++
			continue
		}
		childPrefix := parent.prefix + name + "/"
		j := i
		for j < end && hasPrefix(entries[j].Path, childPrefix) {
			j++
		}
		child := &subtree{name: name, prefix: childPrefix, entrySpan: [2]int{i, j}}
		buildChildren(child, entries)
		parent.children = append(parent.children, child)
		i = j
	}
}

func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}

// firstComponent returns the next path component of path after
// prefix, and whether path continues past that component (nested
// under a directory) rather than naming it directly.
func firstComponent(path, prefix string) (string, bool) {
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], true
		}
	}
	return rest, false
}

// mergedEntry is one synthesized child of a subtree: either a direct
// leaf entry from the flat array, or a directory represented by a
// nested subtree.
type mergedEntry struct {
	name  string
	isDir bool
	dir   *subtree
	leaf  Entry
}

// Iterator adapts an Index's subtree into a treewalk.EntryIterator.
type Iterator struct {
	index  *Index
	merged []mergedEntry
	pos    int
}

// NewIterator returns the root directory-cache iterator over index,
// satisfying treewalk.EntryIterator.
func NewIterator(index *Index) *Iterator {
	return newSubtreeIterator(index, index.root)
}

func newSubtreeIterator(index *Index, s *subtree) *Iterator {
	start, end := s.EntrySpan()
	entries := index.entries[start:end]

	byName := make(map[string]mergedEntry, len(s.children))
	order := make([]string, 0, len(s.children))

	for _, child := range s.children {
		byName[child.name] = mergedEntry{name: child.name, isDir: true, dir: child}
		order = append(order, child.name)
	}
	for _, e := range entries {
		name, isDir := firstComponent(e.Path, s.prefix)
		if isDir {
			continue // represented by a child subtree above
		}
		if _, exists := byName[name]; exists {
			continue
		}
		byName[name] = mergedEntry{name: name, leaf: e}
		order = append(order, name)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := byName[order[i]], byName[order[j]]
		return treewalk.PathCompare([]byte(a.name), a.isDir, []byte(b.name), b.isDir) < 0
	})
	merged := make([]mergedEntry, len(order))
	for i, name := range order {
		merged[i] = byName[name]
	}

	return &Iterator{index: index, merged: merged}
}

func (it *Iterator) Eof() bool { return it.pos >= len(it.merged) }

func (it *Iterator) Advance() {
	if !it.Eof() {
		it.pos++
	}
}

func (it *Iterator) Name() []byte {
	if it.Eof() {
		return nil
	}
	return []byte(it.merged[it.pos].name)
}

func (it *Iterator) Mode() filemode.FileMode {
	if it.Eof() {
		return filemode.Empty
	}
	m := it.merged[it.pos]
	if m.isDir {
		return filemode.Dir
	}
	return m.leaf.Mode
}

func (it *Iterator) Hash() plumbing.Hash {
	if it.Eof() {
		return plumbing.ZeroHash
	}
	m := it.merged[it.pos]
	if m.isDir {
		return m.dir.GetObjectId()
	}
	return m.leaf.Hash
}

func (it *Iterator) IsTree() bool {
	return !it.Eof() && it.merged[it.pos].isDir
}

// Subtree returns the directory-cache-backed child iterator for the
// current entry; db is accepted to satisfy treewalk.EntryIterator but
// unused, since the subtree structure is already fully resident.
func (it *Iterator) Subtree(db plumbing.ObjectDatabase) (treewalk.EntryIterator, error) {
	m := it.merged[it.pos]
	return newSubtreeIterator(it.index, m.dir), nil
}
