package malloc

import "fmt"
import "sort"
import "sync"
import "time"
import "unsafe"

import "github.com/bnclabs/golog"
import s "github.com/bnclabs/gosettings"

import "github.com/berrym/lusush-sub003/api"

var _ api.Mallocer = (*Pool)(nil)

// freeblock is one free extent within a pool. Tracked as an offset
// into the region, so a relocating remap leaves it valid.
type freeblock struct {
	off  int64
	size int64
}

// allocation is the ledger entry for one live chunk. Its presence is
// the sole authority for whether an address is currently allocated
// from this pool.
type allocation struct {
	size      int64
	createdat time.Time
}

// Pool is a single contiguous region obtained from the OS, divided
// between live chunks and free extents, serving one semantic category
// of line-editor allocation.
type Pool struct {
	// lifetime counters, mutated under lock.
	nallocs        int64
	nfrees         int64
	totalallocated int64
	totalfreed     int64
	peakusage      int64

	pooltype  string
	base      []byte // whole mapping, size trails len(base) after a logical shrink
	size      int64
	used      int64
	free      int64
	alignment int64
	maxsize   int64

	freeblocks []freeblock          // address ordered, non overlapping
	ledger     map[int64]allocation // offset -> live chunk

	// configuration
	allowresize bool
	lenient     bool
	maxfblocks  int64
	maxallocs   int64
	fbwarned    bool

	createdat time.Time
	logprefix string

	lock sync.Mutex
}

// NewPool create a pool of `pooltype` category with settings from
// Defaultsettings(). Capacity is rounded up to the alignment and
// clamped to no less than Minpoolsize, the whole region starts out as
// one free extent.
func NewPool(pooltype string, setts s.Settings) (*Pool, error) {
	capacity := setts.Int64("capacity")
	if capacity <= 0 {
		return nil, ErrorInvalidParameter
	}
	validatesettings(setts)

	alignment := setts.Int64("alignment")
	size := Alignup(capacity, alignment)
	if size < Minpoolsize { // a fraction of a page still maps a page
		size = Minpoolsize
	}
	base, err := mapregion(size)
	if err != nil {
		log.Errorf("malloc: mmap of %v bytes failed: %v\n", size, err)
		return nil, ErrorOutofMemory
	}
	pool := &Pool{
		pooltype:    pooltype,
		base:        base,
		size:        size,
		free:        size,
		alignment:   alignment,
		maxsize:     Alignup(setts.Int64("maxsize"), alignment),
		freeblocks:  append(make([]freeblock, 0, 8), freeblock{0, size}),
		ledger:      make(map[int64]allocation),
		allowresize: setts.Bool("allow.resize"),
		lenient:     setts.Bool("lenient"),
		maxfblocks:  setts.Int64("maxfreeblocks"),
		maxallocs:   setts.Int64("maxallocations"),
		createdat:   time.Now(),
		logprefix:   fmt.Sprintf("pool[%v]", pooltype),
	}
	if pool.maxsize < size { // the clamp may outgrow a tiny maxsize
		pool.maxsize = size
	}
	log.Infof("%v started with %v bytes ...\n", pool.logprefix, size)
	return pool, nil
}

// Release implement api.Mallocer{} interface. Unmaps the backing
// region unconditionally, outstanding chunk pointers become invalid.
// The region is poisoned with zeros before the unmap so stale secrets
// never outlive the pool. Safe on a nil pool, must not be called
// twice on the same live pool.
func (pool *Pool) Release() {
	if pool == nil {
		return
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		panicerr("%v released twice", pool.logprefix)
	}
	if outstanding := len(pool.ledger); outstanding > 0 {
		log.Warnf("%v released with %v outstanding chunks\n",
			pool.logprefix, outstanding)
	}
	initblock(pool.base)
	if err := unmapregion(pool.base); err != nil {
		log.Errorf("%v munmap failed: %v\n", pool.logprefix, err)
	}
	pool.base, pool.freeblocks, pool.ledger = nil, nil, nil
	pool.size, pool.used, pool.free = 0, 0, 0
	log.Infof("%v destroyed\n", pool.logprefix)
}

// Pooltype return the semantic category this pool serves.
func (pool *Pool) Pooltype() string {
	return pool.pooltype
}

// Info implement api.Mallocer{} interface.
func (pool *Pool) Info() (size, used, free, peak int64) {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	return pool.size, pool.used, pool.free, pool.peakusage
}

// Utilization implement api.Mallocer{} interface.
func (pool *Pool) Utilization() (nblocks, largest int64) {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	for _, fb := range pool.freeblocks {
		if fb.size > largest {
			largest = fb.size
		}
	}
	return int64(len(pool.freeblocks)), largest
}

// owns report whether ptr falls inside the pool's current region.
func (pool *Pool) owns(ptr unsafe.Pointer) bool {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	if pool.base == nil {
		return false
	}
	start := uintptr(unsafe.Pointer(&pool.base[0]))
	addr := uintptr(ptr)
	return addr >= start && addr < start+uintptr(pool.size)
}

// Validate walk the free list and the ledger and verify that they
// exactly partition the region, no gaps, no overlaps, no double
// accounting. Panics on corruption.
func (pool *Pool) Validate() {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		panicerr("%v validated after release", pool.logprefix)
	}
	if pool.used+pool.free != pool.size {
		panicerr("%v used(%v) + free(%v) != size(%v)",
			pool.logprefix, pool.used, pool.free, pool.size)
	}
	freesum := int64(0)
	extents := make([]freeblock, 0, len(pool.freeblocks)+len(pool.ledger))
	for _, fb := range pool.freeblocks {
		extents = append(extents, fb)
		freesum += fb.size
	}
	if freesum != pool.free {
		panicerr("%v free extents sum to %v, free is %v",
			pool.logprefix, freesum, pool.free)
	}
	usedsum := int64(0)
	for off, alc := range pool.ledger {
		extents = append(extents, freeblock{off, alc.size})
		usedsum += alc.size
	}
	if usedsum != pool.used {
		panicerr("%v ledger sums to %v, used is %v",
			pool.logprefix, usedsum, pool.used)
	}
	sort.Slice(extents, func(i, j int) bool {
		return extents[i].off < extents[j].off
	})
	offset := int64(0)
	for _, ext := range extents {
		if ext.off != offset {
			panicerr("%v gap or overlap at offset %v, next extent at %v",
				pool.logprefix, offset, ext.off)
		}
		offset += ext.size
	}
	if offset != pool.size {
		panicerr("%v extents cover %v bytes, size is %v",
			pool.logprefix, offset, pool.size)
	}
	for i := 1; i < len(pool.freeblocks); i++ {
		prev, curr := pool.freeblocks[i-1], pool.freeblocks[i]
		if prev.off+prev.size == curr.off {
			panicerr("%v free extents %v and %v left uncoalesced",
				pool.logprefix, prev.off, curr.off)
		}
	}
}
