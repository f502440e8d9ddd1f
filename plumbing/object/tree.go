// Package object holds the two object kinds the tree walker and
// revision walker operate on: trees and commits.
package object

import (
	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
)

// TreeEntry is one decoded record of a tree object: a name, its mode,
// and the id of the blob or subtree it points at.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Tree is a parsed git tree object: an ordered list of entries, sorted
// per git's tree order (byte-wise by name, with subtree names compared
// as though a trailing '/' were appended).
type Tree struct {
	Hash    plumbing.Hash
	Entries []TreeEntry
}

// GetTree opens and decodes the tree object identified by id.
func GetTree(db plumbing.ObjectDatabase, id plumbing.Hash) (*Tree, error) {
	typ, _, r, err := db.Open(id)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if typ != plumbing.TreeObject {
		return nil, plumbing.ErrIncorrectObjectType
	}

	entries, err := DecodeTree(r)
	if err != nil {
		return nil, plumbing.NewCorruptObjectError(id, err)
	}

	return &Tree{Hash: id, Entries: entries}, nil
}
