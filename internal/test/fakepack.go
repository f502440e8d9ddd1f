// Package test provides in-process fakes for the object database and
// pack descriptor collaborators, used across the core packages'
// tests in place of a network-fetched fixture corpus.
package test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-corelib/gitcore/plumbing"
)

// FakePack is an in-memory plumbing/cache.PackDescriptor backed by a
// byte slice, for exercising the window cache without a real pack
// file on disk.
type FakePack struct {
	HashValue int64
	Data      []byte

	OpenCalls  int
	CloseCalls int
	FailOpen   bool
}

func (p *FakePack) Hash() int64   { return p.HashValue }
func (p *FakePack) Length() int64 { return int64(len(p.Data)) }

func (p *FakePack) ReadAt(dst []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(p.Data)) {
		return 0, io.EOF
	}
	n := copy(dst, p.Data[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

func (p *FakePack) Mmap(off, length int64) ([]byte, error) {
	return nil, fmt.Errorf("test: FakePack does not support mmap")
}

func (p *FakePack) CacheOpen() error {
	p.OpenCalls++
	if p.FailOpen {
		return fmt.Errorf("test: forced open failure")
	}
	return nil
}

func (p *FakePack) CacheClose() error {
	p.CloseCalls++
	return nil
}

// FakeObjectDatabase is an in-memory plumbing.ObjectDatabase backed by
// a map of pre-encoded objects, for exercising the object parsers, the
// tree walker and the revision walker without a real repository.
type FakeObjectDatabase struct {
	objects map[plumbing.Hash]fakeObject
}

type fakeObject struct {
	typ     plumbing.ObjectType
	payload []byte
}

// NewFakeObjectDatabase builds an empty FakeObjectDatabase.
func NewFakeObjectDatabase() *FakeObjectDatabase {
	return &FakeObjectDatabase{objects: make(map[plumbing.Hash]fakeObject)}
}

// Put stores payload under id as an object of type typ.
func (db *FakeObjectDatabase) Put(id plumbing.Hash, typ plumbing.ObjectType, payload []byte) {
	db.objects[id] = fakeObject{typ: typ, payload: payload}
}

func (db *FakeObjectDatabase) Open(id plumbing.Hash) (plumbing.ObjectType, int64, io.ReadCloser, error) {
	o, ok := db.objects[id]
	if !ok {
		return plumbing.InvalidObject, 0, nil, plumbing.ErrObjectNotFound
	}
	return o.typ, int64(len(o.payload)), io.NopCloser(bytes.NewReader(o.payload)), nil
}

func (db *FakeObjectDatabase) HasObject(id plumbing.Hash) bool {
	_, ok := db.objects[id]
	return ok
}
