package packstore

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/cache"
	binwrite "github.com/go-corelib/gitcore/utils/binary"
	"github.com/go-corelib/gitcore/utils/ioutil"
)

// Packed object layout, a simplified sibling of git's own pack format
// scoped to what the walkers need (full, non-delta objects only — see
// DESIGN.md for why the real delta-encoded format is out of scope
// here): a 4-byte magic, a uint32 object count, then for each object a
// fixed header (id, type, uncompressed size, compressed length)
// followed by its zlib-compressed payload, in any order.
var packMagic = [4]byte{'G', 'C', 'P', 'K'}

const packEntryHeaderSize = plumbing.HashSize + 1 + 8 + 8

// packLoc locates one object's compressed payload within an open pack.
type packLoc struct {
	typ           plumbing.ObjectType
	offset        int64
	compressedLen int64
	size          int64
}

// pack pairs an opened FileDescriptor with the object index scanned
// from it at AddPack time.
type pack struct {
	desc  *FileDescriptor
	index map[plumbing.Hash]packLoc
}

// scanPackIndex reads a pack's header and every entry header
// sequentially (skipping over compressed payloads with the buffered
// reader's Discard), without
// going through the window cache: this is a one-time, whole-file pass
// at open time, not a random-access decode.
func scanPackIndex(fs billy.Filesystem, path string) (map[plumbing.Hash]packLoc, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("packstore: opening pack %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("packstore: reading pack magic: %w", err)
	}
	if magic != packMagic {
		return nil, fmt.Errorf("packstore: %s is not a recognized pack", path)
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("packstore: reading pack object count: %w", err)
	}

	offset := int64(8)
	index := make(map[plumbing.Hash]packLoc, count)
	for i := uint32(0); i < count; i++ {
		var id plumbing.Hash
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, fmt.Errorf("packstore: reading object id: %w", err)
		}
		typByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("packstore: reading object type: %w", err)
		}
		var size, clen uint64
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return nil, fmt.Errorf("packstore: reading object size: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &clen); err != nil {
			return nil, fmt.Errorf("packstore: reading object compressed length: %w", err)
		}

		payloadOffset := offset + packEntryHeaderSize
		index[id] = packLoc{
			typ:           plumbing.ObjectType(typByte),
			offset:        payloadOffset,
			compressedLen: int64(clen),
			size:          int64(size),
		}

		if _, err := r.Discard(int(clen)); err != nil {
			return nil, fmt.Errorf("packstore: skipping object payload: %w", err)
		}
		offset = payloadOffset + int64(clen)
	}

	return index, nil
}

// windowReader sequentially reads [start, start+length) of pack
// through c, re-pinning a cursor one window at a time so no more than
// one window's worth of a pack is ever resident for this read.
type windowReader struct {
	cache  *cache.Cache
	pack   cache.PackDescriptor
	cursor cache.Cursor
	pos    int64
	end    int64
}

func newWindowReader(c *cache.Cache, p cache.PackDescriptor, start, length int64) *windowReader {
	return &windowReader{cache: c, pack: p, pos: start, end: start + length}
}

func (r *windowReader) Read(p []byte) (int, error) {
	if r.pos >= r.end {
		return 0, io.EOF
	}
	if err := r.cache.Get(&r.cursor, r.pack, r.pos); err != nil {
		return 0, fmt.Errorf("packstore: reading pack window: %w", err)
	}
	data := r.cursor.Bytes()
	winStart := r.cursor.Offset()
	off := int(r.pos - winStart)

	want := len(p)
	if remaining := r.end - r.pos; int64(want) > remaining {
		want = int(remaining)
	}
	n := copy(p[:want], data[off:])
	r.pos += int64(n)
	if n == 0 {
		return 0, io.ErrNoProgress
	}
	return n, nil
}

// RawObject is one object to serialize into a pack by WritePack.
type RawObject struct {
	Type    plumbing.ObjectType
	Payload []byte
}

// WritePack serializes objects into path on fs in the layout
// scanPackIndex reads back, content-addressing each entry's id the
// same way loose objects are (ComputeHash), so a packed copy and a
// loose copy of the same content agree on id.
func WritePack(fs billy.Filesystem, path string, objects []RawObject) (err error) {
	f, ferr := fs.Create(path)
	if ferr != nil {
		return fmt.Errorf("packstore: creating pack %s: %w", path, ferr)
	}
	defer ioutil.CheckClose(f, &err)

	w := bufio.NewWriter(f)
	if _, err := w.Write(packMagic[:]); err != nil {
		return err
	}
	if err := binwrite.WriteUint32(w, uint32(len(objects))); err != nil {
		return err
	}

	for _, o := range objects {
		id := plumbing.ComputeHash(o.Type, o.Payload)

		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(o.Payload); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}

		if _, err := w.Write(id[:]); err != nil {
			return err
		}
		if err := w.WriteByte(byte(o.Type)); err != nil {
			return err
		}
		if err := binwrite.Write(w, uint64(len(o.Payload)), uint64(buf.Len())); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	return w.Flush()
}
