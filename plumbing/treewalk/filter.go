package treewalk

import "errors"

// StopWalk is a filter's signal to abort the walk cleanly. It is
// control flow, not a genuine I/O or parse error — see the design
// notes on keeping StopWalk out of the ordinary error path.
var StopWalk = errors.New("treewalk: stop walk")

// Filter prunes entries from a walk, or aborts it. Include is
// evaluated against the walker's current state once per candidate
// path; returning StopWalk from Include ends the walk immediately.
// ShouldBeRecursive is advisory: a filter that can only make pruning
// decisions once it has seen inside a subtree should report true, and
// SetFilter folds that into the walker's recursive mode.
type Filter interface {
	Include(w *Walker) (bool, error)
	ShouldBeRecursive() bool
}

type allFilter struct{}

// ALL is the sentinel filter that accepts every entry.
var ALL Filter = allFilter{}

func (allFilter) Include(*Walker) (bool, error) { return true, nil }
func (allFilter) ShouldBeRecursive() bool        { return false }

// PathFilter restricts a walk to entries at or under a fixed path
// prefix, precompiled into bytes for allocation-free prefix tests via
// PathPrefixCompare.
type PathFilter struct {
	prefix []byte
}

// NewPathFilter builds a PathFilter restricting the walk to path and
// anything under it.
func NewPathFilter(path string) *PathFilter {
	return &PathFilter{prefix: []byte(path)}
}

func (f *PathFilter) Include(w *Walker) (bool, error) {
	return w.PathPrefixCompare(f.prefix) == 0, nil
}

func (f *PathFilter) ShouldBeRecursive() bool { return true }

type andFilter struct{ filters []Filter }

// And composes filters so that every one must include the entry;
// evaluation short-circuits on the first rejection.
func And(filters ...Filter) Filter { return andFilter{filters} }

func (f andFilter) Include(w *Walker) (bool, error) {
	for _, sub := range f.filters {
		ok, err := sub.Include(w)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (f andFilter) ShouldBeRecursive() bool {
	for _, sub := range f.filters {
		if sub.ShouldBeRecursive() {
			return true
		}
	}
	return false
}

type orFilter struct{ filters []Filter }

// Or composes filters so that any one including the entry suffices;
// evaluation short-circuits on the first acceptance.
func Or(filters ...Filter) Filter { return orFilter{filters} }

func (f orFilter) Include(w *Walker) (bool, error) {
	for _, sub := range f.filters {
		ok, err := sub.Include(w)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f orFilter) ShouldBeRecursive() bool {
	for _, sub := range f.filters {
		if sub.ShouldBeRecursive() {
			return true
		}
	}
	return false
}
