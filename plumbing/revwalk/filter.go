package revwalk

import (
	"errors"

	"github.com/go-corelib/gitcore/plumbing/object"
)

// StopWalk is a commit filter's signal to abort the walk cleanly,
// mirroring treewalk.StopWalk's role for tree filters. It is control
// flow, never a genuine I/O or parse error.
var StopWalk = errors.New("revwalk: stop walk")

// RevFilter decides whether a commit belongs in a walk's output.
// Include is evaluated once per interesting candidate commit, after it
// has been parsed and its parents have been enqueued; uninteresting
// commits are not passed to it.
type RevFilter interface {
	Include(c *object.Commit) (bool, error)
}

type allFilter struct{}

// ALL is the sentinel filter that accepts every commit.
var ALL RevFilter = allFilter{}

func (allFilter) Include(*object.Commit) (bool, error) { return true, nil }

type andFilter struct{ filters []RevFilter }

// And composes filters so every one must include the commit;
// evaluation short-circuits on the first rejection.
func And(filters ...RevFilter) RevFilter { return andFilter{filters} }

func (f andFilter) Include(c *object.Commit) (bool, error) {
	for _, sub := range f.filters {
		ok, err := sub.Include(c)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

type orFilter struct{ filters []RevFilter }

// Or composes filters so any one including the commit suffices;
// evaluation short-circuits on the first acceptance.
func Or(filters ...RevFilter) RevFilter { return orFilter{filters} }

func (f orFilter) Include(c *object.Commit) (bool, error) {
	for _, sub := range f.filters {
		ok, err := sub.Include(c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type notFilter struct{ inner RevFilter }

// Not inverts a filter's inclusion decision; an error from the inner
// filter still propagates unchanged.
func Not(inner RevFilter) RevFilter { return notFilter{inner} }

func (f notFilter) Include(c *object.Commit) (bool, error) {
	ok, err := f.inner.Include(c)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// mergeBaseSentinel is the opaque marker consulted only by pipeline
// assembly's phase 1; Include is never called directly on it (the
// walker special-cases it before building the base producer).
type mergeBaseSentinel struct{}

// MergeBase is the commit filter that requests the merge-base
// generator in place of the ordinary pending pipeline. Combining it
// with a non-ALL tree filter is rejected with plumbing.ErrIllegalState
// on the first Next.
var MergeBase RevFilter = mergeBaseSentinel{}

func (mergeBaseSentinel) Include(*object.Commit) (bool, error) {
	return true, nil
}

func isMergeBase(f RevFilter) bool {
	_, ok := f.(mergeBaseSentinel)
	return ok
}
