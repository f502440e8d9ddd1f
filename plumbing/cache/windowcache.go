package cache

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"weak"

	"golang.org/x/sync/singleflight"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/utils/trace"
)

// errShortPack is returned when a window's offset leaves no bytes
// before the pack's recorded end.
var errShortPack = errors.New("cache: window offset at or past end of pack")

// entry is one slot of the cache's dense, sorted window index. It
// holds its window only weakly (w): a Cursor is the sole strong
// holder of a *window, so a window with no cursor pinning it remains
// collectible by the garbage collector even while its entry is still
// in the index, which is what lets newWindowRef's runtime.AddCleanup
// ever fire. pack, size and lastAccessed are kept redundantly on the
// entry itself so eviction bookkeeping works even after w.Value()
// has gone nil; ref is independent of the window struct and lets
// AdviseDrop be called by pack/id without needing a live window.
type entry struct {
	packOrder    int64
	id           int64
	pack         PackDescriptor
	size         int64
	lastAccessed int64
	w            weak.Pointer[window]
	ref          *windowRef
}

// Cache is the bounded byte-window cache over pack files described in
// it services random-access reads while holding at most
// cfg.PackedGitLimit bytes resident, draining a reachability queue of
// garbage-collected windows and falling back to LRU-by-lastAccessed
// pressure reduction.
//
// All mutating operations run under mu. Reading bytes through an
// already-pinned Cursor needs no lock: the cursor holds the *window
// strongly, so its bytes stay valid even if the window's index entry
// is evicted or its ref is cleared by AdviseDrop meanwhile.
type Cache struct {
	mu  sync.Mutex
	cfg Config

	// index is sorted by (packOrder, id).
	index []entry

	residentBytes int64
	clock         int64

	drain *drainQueue
	group singleflight.Group

	openCount map[PackDescriptor]int
}

// NewCache builds a Cache from cfg. cfg must already be valid; callers
// typically start from DefaultConfig().
func NewCache(cfg Config) (*Cache, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Cache{
		cfg:       cfg,
		drain:     newDrainQueue(),
		openCount: make(map[PackDescriptor]int),
	}, nil
}

func less(a, b entry) bool {
	if a.packOrder != b.packOrder {
		return a.packOrder < b.packOrder
	}
	return a.id < b.id
}

// search returns the index of the matching entry and true, or the
// negative-encoded insertion point (sort.Search's convention: the
// first index at which an entry would sort at or after the key) and
// false.
func (c *Cache) search(packOrder, id int64) (int, bool) {
	key := entry{packOrder: packOrder, id: id}
	i := sort.Search(len(c.index), func(i int) bool {
		return !less(c.index[i], key)
	})
	if i < len(c.index) && c.index[i].packOrder == packOrder && c.index[i].id == id {
		return i, true
	}
	return i, false
}

// Get pins into cursor the window containing byteOffset of pack. On a
// miss it loads the window, which may evict other windows first.
//
// The cache's own mutex is released around the actual pack I/O (the
// cacheOpen coalesced through group, and the read/mmap in readWindow):
// holding it across that would fully serialize every Get against a
// given cache, which would make both the singleflight coalescing and
// the "retry after cacheOpen" guard below unreachable, since nothing
// else could ever run concurrently to race with this call.
func (c *Cache) Get(cursor *Cursor, pack PackDescriptor, byteOffset int64) error {
	c.mu.Lock()
	c.drainCleared()

	windowSize := c.cfg.PackedGitWindowSize
	id := byteOffset / windowSize
	packOrder := packOrderKey(pack)

	if i, ok := c.search(packOrder, id); ok {
		if w := c.index[i].w.Value(); w != nil {
			c.clock++
			w.lastAccessed = c.clock
			c.index[i].lastAccessed = c.clock
			cursor.w = w
			c.mu.Unlock()
			trace.Cache.Printf("cache: hit pack=%d id=%d", packOrder, id)
			return nil
		}
		// The GC already collected this window's bytes but the
		// cleared-window notice hasn't been drained yet; drop the
		// stale entry now and fall through to reload it.
		c.evictAt(i)
	}
	c.mu.Unlock()

	if byteOffset < 0 || byteOffset >= pack.Length() {
		return plumbing.NewIoError(errShortPack)
	}
	start := id * windowSize
	size := windowSize
	if remaining := pack.Length() - start; remaining < size {
		size = remaining
	}

	w, err := c.load(pack, id, start, size)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Retry the search after cacheOpen: a concurrent Get may have
	// already populated this window while load was coalescing opens
	// off the lock.
	if i, ok := c.search(packOrder, id); ok {
		if w2 := c.index[i].w.Value(); w2 != nil {
			cursor.w = w2
			return nil
		}
		c.evictAt(i)
	}

	c.clock++
	w.lastAccessed = c.clock
	c.evictForSpace(w.size())
	c.insert(packOrder, id, w)
	cursor.w = w
	trace.Cache.Printf("cache: miss pack=%d id=%d", packOrder, id)
	return nil
}

// load fetches byteOffset..+size of pack off the cache's lock: only
// the openCount bookkeeping takes c.mu, briefly, around the I/O.
func (c *Cache) load(pack PackDescriptor, id, byteOffset, size int64) (*window, error) {
	c.mu.Lock()
	needOpen := c.openCount[pack] == 0
	c.mu.Unlock()

	if needOpen {
		_, err, _ := c.group.Do(packGroupKey(pack), func() (any, error) {
			c.mu.Lock()
			already := c.openCount[pack] > 0
			c.mu.Unlock()
			if already {
				return nil, nil
			}
			if err := pack.CacheOpen(); err != nil {
				return nil, plumbing.NewIoError(err)
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.openCount[pack]++
	c.mu.Unlock()

	data, err := c.readWindow(pack, byteOffset, size)
	if err != nil {
		c.mu.Lock()
		c.openCount[pack]--
		closeNow := c.openCount[pack] <= 0
		if closeNow {
			delete(c.openCount, pack)
		}
		c.mu.Unlock()
		if closeNow {
			pack.CacheClose() // nolint: errcheck
		}
		return nil, plumbing.NewIoError(err)
	}

	w := &window{pack: pack, id: id, byteOffset: byteOffset, data: data}
	w.ref = newWindowRef(w, c.drain)
	return w, nil
}

func (c *Cache) readWindow(pack PackDescriptor, byteOffset, size int64) ([]byte, error) {
	if c.cfg.mmapEnabled() {
		if data, err := pack.Mmap(byteOffset, size); err == nil {
			return data, nil
		}
	}
	buf := make([]byte, size)
	if _, err := pack.ReadAt(buf, byteOffset); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Cache) insert(packOrder, id int64, w *window) {
	e := entry{
		packOrder:    packOrder,
		id:           id,
		pack:         w.pack,
		size:         w.size(),
		lastAccessed: w.lastAccessed,
		w:            weak.Make(w),
		ref:          w.ref,
	}
	i, ok := c.search(packOrder, id)
	if ok {
		c.residentBytes += e.size - c.index[i].size
		c.index[i] = e
		return
	}
	c.index = append(c.index, entry{})
	copy(c.index[i+1:], c.index[i:])
	c.index[i] = e
	c.residentBytes += e.size
}

// evictForSpace runs the LRU pressure-reduction driver
// driver 2) until there is room for a newly-loaded window of the
// given size.
func (c *Cache) evictForSpace(newSize int64) {
	capacity := c.cfg.PackedGitLimit / c.cfg.PackedGitWindowSize
	for int64(len(c.index)) >= capacity || c.residentBytes+newSize > c.cfg.PackedGitLimit {
		if len(c.index) == 0 {
			return
		}
		lru := 0
		for i := 1; i < len(c.index); i++ {
			if c.index[i].lastAccessed < c.index[lru].lastAccessed {
				lru = i
			}
		}
		c.evictAt(lru)
	}
}

// drainCleared polls the reachability queue and removes every cleared
// window from the index, closing packs whose openCount reaches zero.
// Notices are processed in the order they were queued.
func (c *Cache) drainCleared() {
	for _, cl := range c.drain.drain() {
		i, ok := c.search(packOrderKey(cl.pack), cl.id)
		if !ok {
			continue
		}
		c.evictAt(i)
	}
}

func (c *Cache) evictAt(i int) {
	e := c.index[i]
	c.residentBytes -= e.size
	c.index = append(c.index[:i], c.index[i+1:]...)

	c.openCount[e.pack]--
	if c.openCount[e.pack] <= 0 {
		e.pack.CacheClose() // nolint: errcheck
		delete(c.openCount, e.pack)
	}
}

// AdviseDrop forces the window at byteOffset of pack, if resident, to
// be enqueued for the next drain, without waiting for the garbage
// collector to notice it is unreachable. It is the "any bounded
// external pressure signal" hook the reachability-queue design calls
// for; see also Cursor.AdviseDrop for dropping a pinned window.
func (c *Cache) AdviseDrop(pack PackDescriptor, byteOffset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := byteOffset / c.cfg.PackedGitWindowSize
	if i, ok := c.search(packOrderKey(pack), id); ok {
		c.index[i].ref.AdviseDrop()
	}
}

// Purge drops all windows for pack and forces its logical close.
func (c *Cache) Purge(pack PackDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order := packOrderKey(pack)
	kept := c.index[:0]
	for _, e := range c.index {
		if e.packOrder == order {
			c.residentBytes -= e.size
			continue
		}
		kept = append(kept, e)
	}
	c.index = kept

	if c.openCount[pack] > 0 {
		pack.CacheClose() // nolint: errcheck
	}
	delete(c.openCount, pack)
}

// Reconfigure merges patch onto the running configuration (per
// via dario.cat/mergo). A changed window size or mmap mode
// evicts every window, since they are not reusable under the new
// geometry; an unchanged geometry with only a decreased limit instead
// prunes LRU-first until residentBytes <= the new limit.
func (c *Cache) Reconfigure(patch Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, err := merge(c.cfg, patch)
	if err != nil {
		return err
	}

	geometryChanged := merged.PackedGitWindowSize != c.cfg.PackedGitWindowSize ||
		merged.mmapEnabled() != c.cfg.mmapEnabled()

	c.cfg = merged

	if geometryChanged {
		for _, e := range c.index {
			c.openCount[e.pack]--
			if c.openCount[e.pack] <= 0 {
				e.pack.CacheClose() // nolint: errcheck
				delete(c.openCount, e.pack)
			}
		}
		c.index = nil
		c.residentBytes = 0
		return nil
	}

	for c.residentBytes > c.cfg.PackedGitLimit && len(c.index) > 0 {
		lru := 0
		for i := 1; i < len(c.index); i++ {
			if c.index[i].lastAccessed < c.index[lru].lastAccessed {
				lru = i
			}
		}
		c.evictAt(lru)
	}

	return nil
}

// OpenWindowCount reports the number of windows currently resident,
// for diagnostics and tests.
func (c *Cache) OpenWindowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// ResidentBytes reports the total size in bytes of all windows
// currently resident, for diagnostics and tests.
func (c *Cache) ResidentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.residentBytes
}

func packGroupKey(pack PackDescriptor) string {
	return strconv.FormatInt(packOrderKey(pack), 10)
}
