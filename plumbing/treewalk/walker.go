package treewalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
	"github.com/go-corelib/gitcore/utils/trace"
)

// node is the walker-owned bookkeeping wrapped around one
// EntryIterator: the path prefix leading up to (but not including)
// its own current entry, its parent (for subtree exit), and the
// matches tag used during a single min() pass. A
// node's matches is itself exactly while it is the min() winner
// (used by exitSubtree to recover the outer currentHead), the
// winner's pointer while it is a tied contributor, or nil otherwise.
type node struct {
	it       EntryIterator
	basePath []byte
	parent   *node
	matches  *node
}

func (n *node) currentPath() []byte {
	if n.it.Eof() {
		return nil
	}
	name := n.it.Name()
	if len(n.basePath) == 0 {
		return name
	}
	buf := make([]byte, 0, len(n.basePath)+1+len(name))
	buf = append(buf, n.basePath...)
	buf = append(buf, '/')
	buf = append(buf, name...)
	return buf
}

// Walker drives N ordered tree-entry iterators in lockstep, emitting
// the lexicographically smallest current path across all of them on
// every successful Next — the n-way generalization of a single-tree
// walk, synchronized the way a two-way tree diff merges two sorted
// entry streams by name comparison.
//
// A Walker is single-threaded: one instance must not be touched from
// multiple goroutines concurrently, and its filter is not shareable
// across walkers.
type Walker struct {
	db    plumbing.ObjectDatabase
	nodes []*node
	depth int

	recursive bool
	postOrder bool
	filter    Filter

	advance     bool
	currentHead *node

	postChildrenPending bool
	currentIsPostChildren bool
}

// NewWalker builds an empty Walker; call AddTree to add trees before
// the first Next.
func NewWalker() *Walker {
	return &Walker{filter: ALL}
}

// Reset discards all trees and resets depth to 0.
func (w *Walker) Reset() {
	w.nodes = nil
	w.depth = 0
	w.advance = false
	w.currentHead = nil
	w.postChildrenPending = false
	w.currentIsPostChildren = false
}

// AddTree appends a tree to walk in parallel. Trees are indexed in
// the order they are added; GetObjectId(nth) and GetRawMode(nth)
// index by that order.
func (w *Walker) AddTree(db plumbing.ObjectDatabase, it EntryIterator) {
	w.db = db
	w.nodes = append(w.nodes, &node{it: it})
}

// GetTreeCount returns the number of trees currently being walked.
func (w *Walker) GetTreeCount() int { return len(w.nodes) }

// SetRecursive enables or disables recursive descent into subtrees.
// A filter whose ShouldBeRecursive reports true also enables it
// (folded in by SetFilter).
func (w *Walker) SetRecursive(v bool) { w.recursive = v }

// SetPostOrder enables post-order delivery: a subtree entry is
// delivered with IsPostChildren true immediately after all of its
// children have been delivered. In a recursive walk that is the
// entry's only delivery; after a manual EnterSubtree it follows the
// entry's earlier delivery.
func (w *Walker) SetPostOrder(v bool) { w.postOrder = v }

// SetFilter installs the walk's entry filter. A nil filter is
// equivalent to ALL.
func (w *Walker) SetFilter(f Filter) {
	if f == nil {
		f = ALL
	}
	w.filter = f
	if f.ShouldBeRecursive() {
		w.recursive = true
	}
}

// min finds the iterator with the lexicographically smallest current
// path among non-EOF iterators, tagging all ties (including the
// winner itself) with matches set to the winner. Non-contributing and
// EOF iterators get matches == nil. Returns allEOF == true if every
// iterator is exhausted.
func (w *Walker) min() (head *node, allEOF bool) {
	var best *node
	for _, n := range w.nodes {
		if n.it.Eof() {
			continue
		}
		if best == nil {
			best = n
			continue
		}
		if PathCompare(n.currentPath(), n.it.IsTree(), best.currentPath(), best.it.IsTree()) < 0 {
			best = n
		}
	}
	for _, n := range w.nodes {
		n.matches = nil
		if n.it.Eof() {
			continue
		}
		if best != nil && PathCompare(n.currentPath(), n.it.IsTree(), best.currentPath(), best.it.IsTree()) == 0 {
			n.matches = best
		}
	}
	if best == nil {
		return nil, true
	}
	return best, false
}

// Next advances to the next matching path, applying the filter and
// recursing into subtrees when enabled. It returns false once the
// walk is exhausted.
func (w *Walker) Next() (bool, error) {
	for {
		if w.postChildrenPending {
			w.postChildrenPending = false
			w.currentIsPostChildren = true
			w.advance = true
			return true, nil
		}

		if w.advance {
			for _, n := range w.nodes {
				if n.matches == w.currentHead {
					n.it.Advance()
				}
			}
			w.advance = false
			w.currentIsPostChildren = false
		}

		head, allEOF := w.min()
		if allEOF {
			if w.depth > 0 {
				if err := w.exitSubtree(); err != nil {
					return false, err
				}
				// The reinstated parent iterators sit exactly on the
				// directory entry just finished; they were never
				// marked for advance (only a delivered leaf is), so
				// the next pass over the loop must advance them past
				// it before re-running min().
				w.advance = true
				if w.postOrder {
					w.postChildrenPending = true
				}
				continue
			}
			return false, nil
		}

		w.currentHead = head
		w.currentIsPostChildren = false

		ok, err := w.filter.Include(w)
		if err != nil {
			if err == StopWalk {
				return false, nil
			}
			return false, err
		}
		if !ok {
			for _, n := range w.nodes {
				if n.matches == head {
					n.it.Advance()
				}
			}
			continue
		}

		if w.recursive && head.it.IsTree() {
			if err := w.enterSubtree(); err != nil {
				return false, err
			}
			continue
		}

		w.advance = true
		trace.TreeWalk.Printf("treewalk: emit %q", w.GetPathString())
		return true, nil
	}
}

// enterSubtree replaces every iterator that contributed the current
// path and names a tree with a new child iterator; every other
// iterator is replaced by an empty sentinel whose parent is the
// iterator it replaces. depth is incremented.
func (w *Walker) enterSubtree() error {
	head := w.currentHead
	basePath := head.currentPath()

	newNodes := make([]*node, len(w.nodes))
	for i, n := range w.nodes {
		if n.matches == head && n.it.IsTree() {
			child, err := n.it.Subtree(w.db)
			if err != nil {
				return err
			}
			newNodes[i] = &node{it: child, basePath: basePath, parent: n}
		} else {
			newNodes[i] = &node{it: NewEmptyIterator(), parent: n}
		}
	}
	w.nodes = newNodes
	w.depth++
	w.currentHead = nil
	w.advance = false
	return nil
}

// EnterSubtree lets a non-recursive caller manually descend into the
// current entry's subtree, mirroring enterSubtree's internal use by a
// recursive walk.
func (w *Walker) EnterSubtree() error {
	if w.currentHead == nil || !w.currentHead.it.IsTree() {
		return plumbing.ErrIllegalState
	}
	return w.enterSubtree()
}

// exitSubtree reverts every iterator to its parent and recomputes
// currentHead as the node whose matches tag still points at itself —
// the outer min() pass's winner, from before this subtree was
// entered (design note (c): this tag must not be disturbed between
// the subtree's terminal min() and this call, and it isn't, since
// only child nodes' matches fields are touched while inside the
// subtree).
func (w *Walker) exitSubtree() error {
	for i, n := range w.nodes {
		w.nodes[i] = n.parent
	}
	w.depth--

	w.currentHead = nil
	for _, n := range w.nodes {
		if n.matches == n {
			w.currentHead = n
			break
		}
	}
	return nil
}

// GetObjectId returns the nth tree's contribution to the current
// path, or the zero hash if that tree does not contain this path.
func (w *Walker) GetObjectId(nth int) plumbing.Hash {
	n := w.nodes[nth]
	if n.matches != w.currentHead {
		return plumbing.ZeroHash
	}
	return n.it.Hash()
}

// IdEqual reports whether trees a and b contribute the same object id
// at the current path.
func (w *Walker) IdEqual(a, b int) bool {
	return w.GetObjectId(a) == w.GetObjectId(b)
}

// GetRawMode returns the nth tree's raw mode bits at the current
// path, or 0 if that tree does not contain this path.
func (w *Walker) GetRawMode(nth int) int {
	n := w.nodes[nth]
	if n.matches != w.currentHead {
		return 0
	}
	return int(n.it.Mode())
}

// GetFileMode returns the nth tree's mode at the current path, or
// filemode.Empty if that tree does not contain this path.
func (w *Walker) GetFileMode(nth int) filemode.FileMode {
	n := w.nodes[nth]
	if n.matches != w.currentHead {
		return filemode.Empty
	}
	return n.it.Mode()
}

// GetPathString returns the current path.
func (w *Walker) GetPathString() string {
	if w.currentHead == nil {
		return ""
	}
	return string(w.currentHead.currentPath())
}

// GetNameString returns the current entry's own name (the last path
// component).
func (w *Walker) GetNameString() string {
	if w.currentHead == nil {
		return ""
	}
	return string(w.currentHead.it.Name())
}

// IsSubtree reports whether the current entry names a directory.
func (w *Walker) IsSubtree() bool {
	return w.currentHead != nil && w.currentHead.it.IsTree()
}

// IsPostChildren reports whether the current delivery is the
// post-order delivery of a subtree entry after all of its children
// have been walked.
func (w *Walker) IsPostChildren() bool {
	return w.currentIsPostChildren
}

// PathPrefixCompare is the path-prefix test against the
// current path.
func (w *Walker) PathPrefixCompare(prefix []byte) int {
	if w.currentHead == nil {
		return 0
	}
	return PathPrefixCompare(w.currentHead.currentPath(), w.currentHead.it.IsTree(), prefix)
}
