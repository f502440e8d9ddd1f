// Package packstore provides the concrete storage collaborators the
// window cache and object database interfaces are defined against: a
// plumbing/cache.PackDescriptor over a go-billy/v5 filesystem, and a
// loose/packed plumbing.ObjectDatabase sufficient to open commit and
// tree objects by id.
package packstore

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/go-corelib/gitcore/plumbing/cache"
)

// errPackNotOpen is returned by ReadAt and Mmap when called before the
// window cache's first CacheOpen for this pack.
var errPackNotOpen = errors.New("packstore: pack not open")

// FileDescriptor is a plumbing/cache.PackDescriptor backed by a file on
// a go-billy filesystem. Mmap has no true memory-mapped path (outside
// the corpus, see DESIGN.md): it instead reads the whole file into a
// heap buffer on first use and slices into it, giving the window
// cache's PackedGitMMAP option a whole-file-read strategy to select
// against the ordinary per-window ReadAt path.
type FileDescriptor struct {
	fs       billy.Filesystem
	path     string
	orderKey int64
	length   int64

	mu    sync.Mutex
	file  billy.File
	whole []byte
}

// NewFileDescriptor stats path on fs and builds a FileDescriptor over
// it. orderKey must be stable and unique among the descriptors sharing
// a single cache.Cache, since the cache sorts its window index by it.
func NewFileDescriptor(fs billy.Filesystem, path string, orderKey int64) (*FileDescriptor, error) {
	fi, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("packstore: stat %s: %w", path, err)
	}
	return &FileDescriptor{fs: fs, path: path, orderKey: orderKey, length: fi.Size()}, nil
}

// Path returns the filesystem path this descriptor was opened from.
func (d *FileDescriptor) Path() string { return d.path }

// Hash returns the descriptor's order key.
func (d *FileDescriptor) Hash() int64 { return d.orderKey }

// Length returns the pack's total length in bytes.
func (d *FileDescriptor) Length() int64 { return d.length }

// ReadAt reads len(dst) bytes starting at off from the open backing
// file.
func (d *FileDescriptor) ReadAt(dst []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.whole != nil {
		if off < 0 || off >= int64(len(d.whole)) {
			return 0, io.EOF
		}
		n := copy(dst, d.whole[off:])
		if n < len(dst) {
			return n, io.EOF
		}
		return n, nil
	}
	if d.file == nil {
		return 0, errPackNotOpen
	}
	return d.file.ReadAt(dst, off)
}

// Mmap reads the entire pack into memory on first call (there is no
// true mmap path here) and returns the [off, off+length) slice of that
// buffer.
func (d *FileDescriptor) Mmap(off, length int64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.whole == nil {
		if d.file == nil {
			return nil, errPackNotOpen
		}
		buf := make([]byte, d.length)
		if _, err := io.ReadFull(io.NewSectionReader(d.file, 0, d.length), buf); err != nil {
			return nil, fmt.Errorf("packstore: reading %s into memory: %w", d.path, err)
		}
		d.whole = buf
	}
	if off < 0 || length < 0 || off+length > int64(len(d.whole)) {
		return nil, fmt.Errorf("packstore: mmap range [%d,%d) out of bounds for %s", off, off+length, d.path)
	}
	return d.whole[off : off+length], nil
}

// CacheOpen opens the backing file. It is idempotent.
func (d *FileDescriptor) CacheOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil {
		return nil
	}
	f, err := d.fs.Open(d.path)
	if err != nil {
		return fmt.Errorf("packstore: opening %s: %w", d.path, err)
	}
	d.file = f
	return nil
}

// CacheClose closes the backing file and drops any whole-file buffer.
func (d *FileDescriptor) CacheClose() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.whole = nil
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

var _ cache.PackDescriptor = (*FileDescriptor)(nil)
