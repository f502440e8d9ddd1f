package revwalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/object"
	"github.com/go-corelib/gitcore/plumbing/treewalk"
)

// treeRewriteFilter is the internal filter pipeline assembly phase 4
// conjoins with the caller's commit filter whenever a tree filter is
// present: it computes, for a single-parent commit, whether its tree
// is identical to its parent's tree under the path filter, and if so
// marks the edge for rewrite (history simplification skips it) instead
// of passing it through. Root commits and merge commits are never
// marked for rewrite, matching plain git's default simplification.
type treeRewriteFilter struct {
	db         plumbing.ObjectDatabase
	pathFilter treewalk.Filter
	rewriteTo  map[plumbing.Hash]plumbing.Hash
}

func newTreeRewriteFilter(db plumbing.ObjectDatabase, pathFilter treewalk.Filter) *treeRewriteFilter {
	return &treeRewriteFilter{db: db, pathFilter: pathFilter, rewriteTo: make(map[plumbing.Hash]plumbing.Hash)}
}

func (f *treeRewriteFilter) Include(c *object.Commit) (bool, error) {
	switch len(c.Parents) {
	case 0:
		affects, err := f.treeHasPath(c.TreeHash)
		if err != nil {
			return false, err
		}
		return affects, nil
	case 1:
		same, err := f.treeSame(c.TreeHash, c.Parents[0])
		if err != nil {
			return false, err
		}
		if same {
			c.SetFlag(object.FlagRewrite)
			f.rewriteTo[c.Hash] = c.Parents[0]
			return false, nil
		}
		return true, nil
	default:
		// Merge commits always survive simplification: collapsing one
		// would hide which parent actually introduced the change.
		return true, nil
	}
}

// resolve follows a chain of rewrite-marked commits to the nearest
// surviving ancestor, for the rewrite generator to substitute into a
// surviving commit's parent list.
func (f *treeRewriteFilter) resolve(h plumbing.Hash) plumbing.Hash {
	for {
		next, ok := f.rewriteTo[h]
		if !ok {
			return h
		}
		h = next
	}
}

func (f *treeRewriteFilter) treeHasPath(treeHash plumbing.Hash) (bool, error) {
	it, err := treewalk.NewObjectTreeIteratorByHash(f.db, treeHash)
	if err != nil {
		return false, err
	}
	w := treewalk.NewWalker()
	w.SetRecursive(true)
	w.AddTree(f.db, it)
	w.SetFilter(f.pathFilter)
	return w.Next()
}

func (f *treeRewriteFilter) treeSame(treeHash, parentHash plumbing.Hash) (bool, error) {
	parent, err := object.GetCommit(f.db, parentHash)
	if err != nil {
		return false, err
	}

	itA, err := treewalk.NewObjectTreeIteratorByHash(f.db, treeHash)
	if err != nil {
		return false, err
	}
	itB, err := treewalk.NewObjectTreeIteratorByHash(f.db, parent.TreeHash)
	if err != nil {
		return false, err
	}

	w := treewalk.NewWalker()
	w.SetRecursive(true)
	w.AddTree(f.db, itA)
	w.AddTree(f.db, itB)
	w.SetFilter(f.pathFilter)

	for {
		ok, err := w.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		if !w.IdEqual(0, 1) {
			return false, nil
		}
	}
}
