package revwalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/object"
)

// mergeBaseGenerator installs in place of the ordinary pending
// pipeline (assembly phase 1) when the commit filter is MergeBase: it
// paints each start commit's reachability as a bit in a mask and walks
// the combined history by descending commit time, reporting the
// commits reached by every start's mask as soon as each first achieves
// it, then pruning that branch (any ancestor of an already-found base
// cannot itself be a minimal common ancestor).
//
// Commit timestamps are assumed roughly monotonic along parent edges,
// the same assumption the date-ordered queue relies on elsewhere; a
// clock-skewed history can in principle surface a base late, a known
// limitation shared with plain commit-time merge-base search.
type mergeBaseGenerator struct {
	result []*object.Commit
	pos    int
}

func newMergeBaseGenerator(src *commitSource, starts []*object.Commit) (*mergeBaseGenerator, error) {
	if len(starts) < 2 {
		return &mergeBaseGenerator{}, nil
	}

	full := uint32(0)
	for i := range starts {
		full |= 1 << uint(i)
	}

	reached := make(map[plumbing.Hash]uint32, len(starts))
	queue := newDateQueue()
	for i, c := range starts {
		reached[c.Hash] |= 1 << uint(i)
		queue.push(c)
	}

	var results []*object.Commit
	done := make(map[plumbing.Hash]bool)

	for {
		c, ok := queue.pop()
		if !ok {
			break
		}
		mask := reached[c.Hash]
		if mask == full {
			if !done[c.Hash] {
				done[c.Hash] = true
				results = append(results, c)
			}
			continue // prune: ancestors of a found base are never minimal.
		}
		for _, ph := range c.Parents {
			pc, err := src.get(ph)
			if err != nil {
				return nil, err
			}
			before := reached[ph]
			after := before | mask
			if after == before {
				continue
			}
			reached[ph] = after
			queue.push(pc)
		}
	}

	return &mergeBaseGenerator{result: results}, nil
}

func (g *mergeBaseGenerator) Next() (*object.Commit, error) {
	if g.pos >= len(g.result) {
		return nil, nil
	}
	c := g.result[g.pos]
	g.pos++
	return c, nil
}

// MergeBaseOf returns the minimal common ancestors of commits, the
// caller-facing convenience the distillation's merge-base special case
// otherwise leaves implicit in a Walker's pipeline assembly. Package
// object cannot expose this directly as a Commit method: it would
// import revwalk, which already imports object to parse commits.
func MergeBaseOf(db plumbing.ObjectDatabase, commits ...*object.Commit) ([]*object.Commit, error) {
	w := NewWalker(db)
	w.SetRevFilter(MergeBase)
	for _, c := range commits {
		w.MarkStart(c)
	}
	var result []*object.Commit
	for {
		c, err := w.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return result, nil
		}
		result = append(result, c)
	}
}
