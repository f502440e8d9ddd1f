package packstore

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-billy/v5"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/utils/ioutil"
)

// looseDir splits id's hex encoding into the two-character directory
// and the remaining filename component git uses under objects/.
func looseDir(id plumbing.Hash) (dir, file string) {
	s := id.String()
	return s[:2], s[2:]
}

func loosePath(id plumbing.Hash) string {
	dir, file := looseDir(id)
	return dir + "/" + file
}

// looseStore reads and writes objects in the canonical loose format: a
// zlib stream wrapping "<type> <size>\x00<payload>", stored at
// <root>/<2-char prefix>/<38-char remainder>.
type looseStore struct {
	fs   billy.Filesystem
	root string
}

func newLooseStore(fs billy.Filesystem, root string) *looseStore {
	return &looseStore{fs: fs, root: root}
}

func (l *looseStore) fullPath(id plumbing.Hash) string {
	return l.fs.Join(l.root, loosePath(id))
}

func (l *looseStore) has(id plumbing.Hash) bool {
	_, err := l.fs.Stat(l.fullPath(id))
	return err == nil
}

func (l *looseStore) open(id plumbing.Hash) (plumbing.ObjectType, int64, io.ReadCloser, error) {
	f, err := l.fs.Open(l.fullPath(id))
	if err != nil {
		return plumbing.InvalidObject, 0, nil, plumbing.ErrObjectNotFound
	}

	zr, err := zlib.NewReader(f)
	if err != nil {
		f.Close()
		return plumbing.InvalidObject, 0, nil, plumbing.NewCorruptObjectError(id, fmt.Errorf("inflating: %w", err))
	}

	br := bufio.NewReader(zr)
	header, err := br.ReadString(0)
	if err != nil {
		zr.Close()
		f.Close()
		return plumbing.InvalidObject, 0, nil, plumbing.NewCorruptObjectError(id, fmt.Errorf("reading header: %w", err))
	}
	header = header[:len(header)-1] // drop the trailing NUL

	typ, size, err := parseLooseHeader(header)
	if err != nil {
		zr.Close()
		f.Close()
		return plumbing.InvalidObject, 0, nil, plumbing.NewCorruptObjectError(id, err)
	}

	return typ, size, ioutil.NewReadCloser(br, ioutil.MultiCloser(zr, f)), nil
}

func parseLooseHeader(header string) (plumbing.ObjectType, int64, error) {
	sp := bytes.IndexByte([]byte(header), ' ')
	if sp < 0 {
		return plumbing.InvalidObject, 0, fmt.Errorf("malformed object header %q", header)
	}
	typ, err := plumbing.ParseObjectType(header[:sp])
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("malformed object header %q: %w", header, err)
	}
	size, err := strconv.ParseInt(header[sp+1:], 10, 64)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("malformed object header %q: %w", header, err)
	}
	return typ, size, nil
}

// put encodes payload in the canonical loose format and writes it to
// its content-addressed path, creating parent directories as needed.
// It is a no-op if the object already exists.
func (l *looseStore) put(typ plumbing.ObjectType, payload []byte) (id plumbing.Hash, err error) {
	id = plumbing.ComputeHash(typ, payload)
	path := l.fullPath(id)
	if l.has(id) {
		return id, nil
	}

	if mkErr := l.fs.MkdirAll(l.fs.Join(l.root, func() string { d, _ := looseDir(id); return d }()), 0o755); mkErr != nil {
		return id, fmt.Errorf("packstore: creating loose object directory: %w", mkErr)
	}

	f, err := l.fs.Create(path)
	if err != nil {
		return id, fmt.Errorf("packstore: creating loose object %s: %w", id, err)
	}
	defer ioutil.CheckClose(f, &err)

	zw := zlib.NewWriter(f)
	fmt.Fprintf(zw, "%s %d\x00", typ, len(payload))
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return id, fmt.Errorf("packstore: writing loose object %s: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return id, fmt.Errorf("packstore: flushing loose object %s: %w", id, err)
	}
	return id, nil
}
