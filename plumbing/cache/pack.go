package cache

// PackDescriptor is a pack file's identity as the window cache sees
// it: a stable order key, a total length, and the means to read bytes
// from (or map bytes over) its backing storage. Concrete
// implementations live outside this package (see package packstore);
// this package only ever holds the interface.
type PackDescriptor interface {
	// Hash is a stable integer used only to impose a deterministic
	// order among descriptors when sorting the window index.
	Hash() int64

	// Length is the pack's total length in bytes.
	Length() int64

	// ReadAt reads len(dst) bytes from the pack starting at off,
	// mirroring io.ReaderAt.
	ReadAt(dst []byte, off int64) (int, error)

	// Mmap maps [off, off+length) of the pack's backing file, when the
	// cache's PackedGitMMAP configuration is enabled. Implementations
	// that don't support mapping may return an error; the cache falls
	// back to ReadAt in that case.
	Mmap(off, length int64) ([]byte, error)

	// CacheOpen is called before the first read of this pack;
	// implementations open the backing file descriptor and increment
	// any resources tied to it. It may be called more than once and
	// must be idempotent with CacheClose.
	CacheOpen() error

	// CacheClose releases resources acquired by CacheOpen. Called when
	// the pack's openCount drops to zero.
	CacheClose() error
}

// packOrderKey orders packs deterministically by their Hash. Ties are
// not broken: two descriptors with equal Hash values share index keys,
// so Hash must be unique among the packs of one Cache.
func packOrderKey(p PackDescriptor) int64 {
	return p.Hash()
}
