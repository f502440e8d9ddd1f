package revwalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/object"
)

// generator is one stage of the assembled pipeline. Next returns a nil
// commit and a nil error at EOF; a filter's StopWalk unwinds to the
// same nil, nil result rather than propagating as an error.
type generator interface {
	Next() (*object.Commit, error)
}

// commitSource resolves a parent hash to its parsed Commit, sharing
// one per-walker parse cache across every generator in the pipeline
// (the commit parse cache backing a walker is per-walker, never
// shared across walkers).
type commitSource struct {
	db    plumbing.ObjectDatabase
	cache map[plumbing.Hash]*object.Commit
}

func newCommitSource(db plumbing.ObjectDatabase) *commitSource {
	return &commitSource{db: db, cache: make(map[plumbing.Hash]*object.Commit)}
}

func (s *commitSource) get(h plumbing.Hash) (*object.Commit, error) {
	if c, ok := s.cache[h]; ok {
		return c, nil
	}
	c, err := object.GetCommit(s.db, h)
	if err != nil {
		return nil, err
	}
	s.cache[h] = c
	return c, nil
}

// pendingGenerator is the base producer (pipeline assembly phase 5):
// it pops from the queue, applies the conjoined commit filter, enqueues
// parents, and emits survivors. Uninteresting commits are always
// traversed (to propagate the UNINTERESTING flag to their parents) but
// never emitted to the caller; the boundary generator recovers them
// from the shared commit cache.
type pendingGenerator struct {
	queue  pendingQueue
	filter RevFilter
	src    *commitSource
}

func newPendingGenerator(src *commitSource, queue pendingQueue, filter RevFilter, starts []*object.Commit) *pendingGenerator {
	g := &pendingGenerator{queue: queue, filter: filter, src: src}
	// Start commits are pushed in insertion order, so the FIFO queue
	// behind START_ORDER pops them in MarkStart order.
	for _, c := range starts {
		c.SetFlag(object.FlagAddedToPending)
		g.queue.push(c)
	}
	return g
}

func (g *pendingGenerator) Next() (*object.Commit, error) {
	for {
		c, ok := g.queue.pop()
		if !ok {
			return nil, nil
		}

		uninteresting := c.HasFlag(object.FlagUninteresting)

		for _, ph := range c.Parents {
			pc, err := g.src.get(ph)
			if err != nil {
				return nil, err
			}
			if pc.HasFlag(object.FlagAddedToPending) {
				if uninteresting {
					pc.SetFlag(object.FlagUninteresting)
				}
				continue
			}
			pc.SetFlag(object.FlagAddedToPending)
			if uninteresting {
				pc.SetFlag(object.FlagUninteresting)
			}
			g.queue.push(pc)
		}

		if uninteresting {
			continue
		}

		ok2, err := g.filter.Include(c)
		if err != nil {
			if err == StopWalk {
				return nil, nil
			}
			return nil, err
		}
		if !ok2 {
			continue
		}
		return c, nil
	}
}

// rewriteGenerator compresses chains of rewrite-marked parents
// (pipeline assembly phase 6): it buffers the entire upstream output
// into a FIFO, rewriting each commit's parent hashes through resolve
// before replaying them in the same order.
type rewriteGenerator struct {
	buf []*object.Commit
	pos int
}

func newRewriteGenerator(upstream generator, resolve func(plumbing.Hash) plumbing.Hash) (*rewriteGenerator, error) {
	g := &rewriteGenerator{}
	for {
		c, err := upstream.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		for i, p := range c.Parents {
			c.Parents[i] = resolve(p)
		}
		g.buf = append(g.buf, c)
	}
	return g, nil
}

func (g *rewriteGenerator) Next() (*object.Commit, error) {
	if g.pos >= len(g.buf) {
		return nil, nil
	}
	c := g.buf[g.pos]
	g.pos++
	return c, nil
}

// topoGenerator wraps upstream in a topological sort (pipeline
// assembly phase 7): Kahn's algorithm over each buffered commit's
// inDegree, the count of its children also present in the buffered
// set. A commit becomes ready once every child that could require it
// has already been emitted, guaranteeing no parent is emitted before
// its children.
type topoGenerator struct {
	ready  *lifoQueue
	lookup map[plumbing.Hash]*object.Commit
}

func newTopoGenerator(upstream generator) (*topoGenerator, error) {
	var all []*object.Commit
	lookup := make(map[plumbing.Hash]*object.Commit)
	for {
		c, err := upstream.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		c.SetInDegree(0)
		all = append(all, c)
		lookup[c.Hash] = c
	}
	for _, c := range all {
		for _, p := range c.Parents {
			if pc, ok := lookup[p]; ok {
				pc.SetInDegree(pc.InDegree() + 1)
			}
		}
	}

	ready := newLIFOQueue()
	for _, c := range all {
		if c.InDegree() == 0 {
			ready.push(c)
		}
	}
	return &topoGenerator{ready: ready, lookup: lookup}, nil
}

func (g *topoGenerator) Next() (*object.Commit, error) {
	c, ok := g.ready.pop()
	if !ok {
		return nil, nil
	}
	for _, p := range c.Parents {
		pc, ok := g.lookup[p]
		if !ok {
			continue
		}
		pc.SetInDegree(pc.InDegree() - 1)
		if pc.InDegree() == 0 {
			g.ready.push(pc)
		}
	}
	return c, nil
}

// reverseGenerator buffers the entire upstream output into a LIFO
// (pipeline assembly phase 8), reversing emission order.
type reverseGenerator struct {
	lifo *lifoQueue
}

func newReverseGenerator(upstream generator) (*reverseGenerator, error) {
	lifo := newLIFOQueue()
	for {
		c, err := upstream.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		lifo.push(c)
	}
	return &reverseGenerator{lifo: lifo}, nil
}

func (g *reverseGenerator) Next() (*object.Commit, error) {
	c, ok := g.lifo.pop()
	if !ok {
		return nil, nil
	}
	return c, nil
}

// boundaryGenerator wraps upstream (pipeline assembly phase 9): once
// every interesting commit has been emitted, it emits each
// parent-of-interesting that is itself uninteresting, tagged
// FlagBoundary, exactly once.
type boundaryGenerator struct {
	upstream generator
	src      *commitSource
	queued   map[plumbing.Hash]bool
	boundary []*object.Commit
	bpos     int
	drained  bool
}

func newBoundaryGenerator(upstream generator, src *commitSource) *boundaryGenerator {
	return &boundaryGenerator{upstream: upstream, src: src, queued: make(map[plumbing.Hash]bool)}
}

func (g *boundaryGenerator) Next() (*object.Commit, error) {
	if !g.drained {
		c, err := g.upstream.Next()
		if err != nil {
			return nil, err
		}
		if c != nil {
			for _, p := range c.Parents {
				if pc, ok := g.src.cache[p]; ok && pc.HasFlag(object.FlagUninteresting) && !g.queued[p] {
					g.queued[p] = true
					pc.SetFlag(object.FlagBoundary)
					g.boundary = append(g.boundary, pc)
				}
			}
			return c, nil
		}
		g.drained = true
	}
	if g.bpos >= len(g.boundary) {
		return nil, nil
	}
	c := g.boundary[g.bpos]
	g.bpos++
	return c, nil
}
