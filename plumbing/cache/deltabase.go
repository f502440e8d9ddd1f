package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// deltaBaseKey identifies one inflated delta-base payload by the pack
// it came from and its byte offset within that pack.
type deltaBaseKey struct {
	pack   PackDescriptor
	offset int64
}

// DeltaBaseCache is the smaller, separately-bounded cache of fully
// inflated delta-base object payloads. It does
// not share storage with the window index. Its limit is fixed by
// NewDeltaBaseCache; it has no reconfigure operation, and
// Cache.Reconfigure does not touch it. Eviction is LRU with a hard byte limit rather than
// groupcache/lru's native entry-count limit, tracked via its
// OnEvicted hook.
type DeltaBaseCache struct {
	mu    sync.Mutex
	limit int64
	used  int64
	c     *lru.Cache
}

// NewDeltaBaseCache builds a DeltaBaseCache bounded at limit bytes.
func NewDeltaBaseCache(limit int64) *DeltaBaseCache {
	d := &DeltaBaseCache{limit: limit}
	d.c = &lru.Cache{
		OnEvicted: func(key lru.Key, value any) {
			d.used -= int64(len(value.([]byte)))
		},
	}
	return d
}

// Put stores payload for (pack, offset), evicting least-recently-used
// entries until the cache fits within its byte limit.
func (d *DeltaBaseCache) Put(pack PackDescriptor, offset int64, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := deltaBaseKey{pack: pack, offset: offset}
	if existing, ok := d.c.Get(key); ok {
		d.used -= int64(len(existing.([]byte)))
	}

	d.c.Add(key, payload)
	d.used += int64(len(payload))

	for d.used > d.limit && d.c.Len() > 0 {
		d.c.RemoveOldest()
	}
}

// Get returns the cached payload for (pack, offset), if present.
func (d *DeltaBaseCache) Get(pack PackDescriptor, offset int64) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.c.Get(deltaBaseKey{pack: pack, offset: offset})
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Clear empties the cache.
func (d *DeltaBaseCache) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.c.Clear()
	d.used = 0
}
