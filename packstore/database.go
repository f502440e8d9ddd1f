package packstore

import (
	"compress/zlib"
	"fmt"
	"io"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/cache"
)

// Database is a plumbing.ObjectDatabase over a go-billy filesystem: a
// loose object store plus zero or more packs, reads over the latter
// routed through a shared cache.Cache so no more than
// cfg.PackedGitLimit bytes of pack data are ever resident at once. It
// is sufficient to open commit and tree objects by id for the tree
// and revision walkers to consume; it is not a full pack/delta codec
// (see DESIGN.md).
type Database struct {
	fs    billy.Filesystem
	loose *looseStore
	cache *cache.Cache

	mu      sync.RWMutex
	packs   []*pack
	nextKey int64
}

// NewDatabase builds a Database rooted at root on fs (the directory
// conventionally named "objects" in a git repository), using cacheCfg
// to size the pack window cache.
func NewDatabase(fs billy.Filesystem, root string, cacheCfg cache.Config) (*Database, error) {
	c, err := cache.NewCache(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("packstore: building window cache: %w", err)
	}
	return &Database{
		fs:    fs,
		loose: newLooseStore(fs, root),
		cache: c,
	}, nil
}

// AddPack opens and indexes the pack at path (relative to the
// database's filesystem), making its objects visible to Open and
// HasObject.
func (db *Database) AddPack(path string) error {
	idx, err := scanPackIndex(db.fs, path)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextKey++
	desc, err := NewFileDescriptor(db.fs, path, db.nextKey)
	if err != nil {
		return err
	}
	db.packs = append(db.packs, &pack{desc: desc, index: idx})
	return nil
}

// PutLoose stores payload as a loose object of type typ, returning its
// content-addressed id.
func (db *Database) PutLoose(typ plumbing.ObjectType, payload []byte) (plumbing.Hash, error) {
	return db.loose.put(typ, payload)
}

// Open implements plumbing.ObjectDatabase. Loose objects take
// precedence over packed ones with the same id.
func (db *Database) Open(id plumbing.Hash) (plumbing.ObjectType, int64, io.ReadCloser, error) {
	if db.loose.has(id) {
		return db.loose.open(id)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, p := range db.packs {
		loc, ok := p.index[id]
		if !ok {
			continue
		}
		wr := newWindowReader(db.cache, p.desc, loc.offset, loc.compressedLen)
		zr, err := zlib.NewReader(wr)
		if err != nil {
			return plumbing.InvalidObject, 0, nil, plumbing.NewCorruptObjectError(id, fmt.Errorf("inflating: %w", err))
		}
		return loc.typ, loc.size, zr, nil
	}

	return plumbing.InvalidObject, 0, nil, plumbing.ErrObjectNotFound
}

// HasObject implements plumbing.ObjectDatabase.
func (db *Database) HasObject(id plumbing.Hash) bool {
	if db.loose.has(id) {
		return true
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, p := range db.packs {
		if _, ok := p.index[id]; ok {
			return true
		}
	}
	return false
}

var _ plumbing.ObjectDatabase = (*Database)(nil)
