package cache

// Cursor is a per-caller token that pins at most one window, keeping
// it from being garbage-collected while the caller decodes bytes
// through it. The cache's own index holds only a weak pointer to the
// window, so a Cursor is the sole strong holder of a window's backing
// bytes; releasing the cursor lets the window's ref clear (if nothing
// else pins it) and, eventually, lets the GC reclaim it.
type Cursor struct {
	w *window
}

// Offset returns the byte offset within the pack the pinned window's
// data starts at.
func (c *Cursor) Offset() int64 {
	return c.w.byteOffset
}

// Bytes returns the pinned window's backing byte slice. The slice
// remains valid for as long as the cursor is not reused by another
// get call; callers must not retain it past that point.
func (c *Cursor) Bytes() []byte {
	return c.w.data
}

// Release drops the cursor's pin, so that once nothing else holds the
// window the garbage collector may reclaim its bytes. The cache's LRU
// pressure reduction evicts index entries whether or not a cursor pins
// the window; a pinned window's bytes stay valid through its cursor
// after its entry is evicted.
func (c *Cursor) Release() {
	c.w = nil
}

// AdviseDrop marks the cursor's currently pinned window reclaimable,
// enqueueing it for the cache's next drain without waiting for the
// garbage collector to notice it unreachable. It is a no-op if the
// cursor holds no window. The window's bytes remain valid through
// this cursor's Bytes/Offset until Release, since AdviseDrop only
// evicts the cache's index entry, not this cursor's own pin.
func (c *Cursor) AdviseDrop() {
	if c.w != nil {
		c.w.ref.AdviseDrop()
	}
}
