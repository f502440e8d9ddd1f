package treewalk

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
	"github.com/go-corelib/gitcore/plumbing/object"
)

// objectTree adapts *object.Tree to TreeEntrySource.
type objectTree struct {
	t *object.Tree
}

func (o objectTree) EntryCount() int { return len(o.t.Entries) }

func (o objectTree) EntryAt(i int) (string, filemode.FileMode, plumbing.Hash) {
	e := o.t.Entries[i]
	return e.Name, e.Mode, e.Hash
}

// NewObjectTreeIterator builds the canonical tree parser variant
// directly over a decoded tree object.
func NewObjectTreeIterator(t *object.Tree) EntryIterator {
	return NewTreeIterator(objectTree{t: t})
}

func newObjectTreeIterator(db plumbing.ObjectDatabase, id plumbing.Hash) (EntryIterator, error) {
	if id.IsZero() {
		return NewEmptyIterator(), nil
	}
	t, err := object.GetTree(db, id)
	if err != nil {
		return nil, err
	}
	return NewObjectTreeIterator(t), nil
}

// NewObjectTreeIteratorByHash opens and decodes the tree object
// identified by id, returning the canonical tree parser variant over
// it. A zero hash yields the empty-tree sentinel, matching a commit
// with no tree contribution at this path.
func NewObjectTreeIteratorByHash(db plumbing.ObjectDatabase, id plumbing.Hash) (EntryIterator, error) {
	return newObjectTreeIterator(db, id)
}
