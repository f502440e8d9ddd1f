// Package revwalk assembles a lazy, filtered, sorted pipeline of
// generators over a commit graph, starting from a declarative
// configuration the caller builds before the first Next call.
package revwalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/object"
	"github.com/go-corelib/gitcore/plumbing/treewalk"
)

// SortOption is a set of sort/traversal bits a Walker combines before
// its first Next call assembles the concrete pipeline.
type SortOption uint32

const (
	// CommitTimeDesc orders output by descending committer time.
	CommitTimeDesc SortOption = 1 << iota
	// Topo guarantees no parent is emitted before its children.
	Topo
	// Reverse emits the fully-buffered output in reverse order.
	Reverse
	// Boundary additionally emits uninteresting parents of interesting
	// commits, tagged FlagBoundary, once history is exhausted.
	Boundary
	// StartOrder preserves markStart insertion order when no other
	// sort is requested.
	StartOrder
)

// Walker enumerates commits reachable from a starting set, honoring an
// uninteresting set, a commit filter, an optional tree filter with
// history simplification, and sort options. A Walker is
// single-threaded: pipeline generators are not thread-safe, and its
// commit parse cache is per-walker.
type Walker struct {
	db plumbing.ObjectDatabase

	starts        []*object.Commit
	uninteresting []*object.Commit

	revFilter  RevFilter
	treeFilter treewalk.Filter
	sort       SortOption

	src      *commitSource
	pipeline generator
	built    bool
}

// NewWalker builds a Walker over db. Call MarkStart, MarkUninteresting,
// SetRevFilter, SetTreeFilter and Sort before the first Next.
func NewWalker(db plumbing.ObjectDatabase) *Walker {
	return &Walker{db: db, revFilter: ALL, src: newCommitSource(db)}
}

// MarkStart adds c as a starting point for the walk.
func (w *Walker) MarkStart(c *object.Commit) {
	w.starts = append(w.starts, c)
	w.src.cache[c.Hash] = c
}

// MarkUninteresting caps reachability at and below c: c and everything
// reachable from it are excluded from the walk's output, but are still
// traversed so the flag can propagate to their parents.
func (w *Walker) MarkUninteresting(c *object.Commit) {
	c.SetFlag(object.FlagUninteresting)
	w.uninteresting = append(w.uninteresting, c)
	w.src.cache[c.Hash] = c
}

// SetRevFilter installs the walk's commit filter. A nil filter is
// equivalent to ALL.
func (w *Walker) SetRevFilter(f RevFilter) {
	if f == nil {
		f = ALL
	}
	w.revFilter = f
}

// SetTreeFilter restricts the walk to commits whose content affects
// the paths f describes, rewriting parent edges to skip commits that
// don't. A nil filter clears tree filtering.
func (w *Walker) SetTreeFilter(f treewalk.Filter) {
	w.treeFilter = f
}

// Sort combines option into the walker's sort set when add is true, or
// replaces the set outright when add is false.
func (w *Walker) Sort(option SortOption, add bool) {
	if add {
		w.sort |= option
	} else {
		w.sort = option
	}
}

// Next returns the next commit in the assembled pipeline's order, or
// nil once the walk is exhausted. The pipeline is assembled lazily on
// the first call.
func (w *Walker) Next() (*object.Commit, error) {
	if !w.built {
		p, err := w.assemble()
		if err != nil {
			return nil, err
		}
		w.pipeline = p
		w.built = true
	}
	return w.pipeline.Next()
}

// assemble runs the nine ordered phases of pipeline construction.
func (w *Walker) assemble() (generator, error) {
	// Phase 1: merge-base special case.
	if isMergeBase(w.revFilter) {
		if w.treeFilter != nil && w.treeFilter != treewalk.ALL {
			return nil, plumbing.ErrIllegalState
		}
		return newMergeBaseGenerator(w.src, w.starts)
	}

	// Phase 2: boundary coercion. Disabled again below if there is no
	// uninteresting commit to bound against.
	boundary := w.sort&Boundary != 0
	if len(w.uninteresting) == 0 {
		boundary = false
	}

	// Phase 3: queue choice.
	var queue pendingQueue
	switch {
	case w.sort&StartOrder != 0:
		queue = newFIFOQueue()
	case w.sort&CommitTimeDesc != 0:
		queue = newDateQueue()
	default:
		queue = newDateQueue()
	}

	// Phase 4: tree filter fusion.
	filter := w.revFilter
	var rewrite *treeRewriteFilter
	needsRewrite := false
	if w.treeFilter != nil && w.treeFilter != treewalk.ALL {
		rewrite = newTreeRewriteFilter(w.db, w.treeFilter)
		filter = And(w.revFilter, rewrite)
		needsRewrite = true
	}

	// Phase 5: base producer.
	var g generator = newPendingGenerator(w.src, queue, filter, w.starts)

	// Phase 6: rewrite.
	if needsRewrite {
		rg, err := newRewriteGenerator(g, rewrite.resolve)
		if err != nil {
			return nil, err
		}
		g = rg
	}

	// Phase 7: topological sort.
	if w.sort&Topo != 0 {
		tg, err := newTopoGenerator(g)
		if err != nil {
			return nil, err
		}
		g = tg
	}

	// Phase 8: reverse.
	if w.sort&Reverse != 0 {
		rg, err := newReverseGenerator(g)
		if err != nil {
			return nil, err
		}
		g = rg
	}

	// Phase 9: boundary.
	if boundary {
		g = newBoundaryGenerator(g, w.src)
	}

	return g, nil
}
