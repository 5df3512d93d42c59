package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultalignment for chunks allocated by a pool, unless the pool is
// created with an explicit "alignment" setting.
const Defaultalignment = int64(16)

// Bufferalignment for pools serving edit-buffers, sized to the cache
// line so hot buffers never straddle one.
const Bufferalignment = int64(64)

// Growthfactor default ceiling for a resizable pool, as a multiple of
// its initial capacity.
const Growthfactor = int64(4)

// Minpoolsize smallest region backing a pool, one page. Smaller
// capacities are clamped up by NewPool.
const Minpoolsize = int64(4096)

// Maxfreeblocks default limit on the number of free extents tracked
// per pool. Crossing it means fragmentation has gone pathological.
const Maxfreeblocks = int64(256)

// Maxallocations default limit on the number of live chunks per pool.
const Maxallocations = int64(1024)

// Maxpoolsize maximum capacity of a single pool.
const Maxpoolsize = int64(1024 * 1024 * 1024) // 1GB

// Pool types, one per semantic category of line-editor allocation.
// The tag picks which default pool serves a request, the allocator
// itself is oblivious to it.
const (
	Bufferpool     = "buffer"
	Eventpool      = "event"
	Stringpool     = "string"
	Temppool       = "temp"
	Historypool    = "history"
	Syntaxpool     = "syntax"
	Completionpool = "completion"
	Custompool     = "custom"
)

// Defaultsettings for a pool of `capacity` bytes.
//
// "capacity" (int64)
//		Size of the pool in bytes, rounded up to "alignment" and
//		clamped to no less than Minpoolsize.
//
// "alignment" (int64, default: Defaultalignment)
//		Power of two >= 8. Every returned chunk address is a multiple
//		of this.
//
// "maxsize" (int64, default: capacity * Growthfactor)
//		Growth ceiling for Expand(). Capped to currently free system
//		memory.
//
// "allow.resize" (bool, default: true)
//		If false, Expand() and Compact() fail with ErrorInvalidState.
//
// "lenient" (bool, default: false)
//		If true, freeing an unknown pointer is silently ignored
//		instead of failing with ErrorInvalidPointer, and using the
//		pool after Release fails with an error instead of panicking.
//
// "maxfreeblocks" (int64, default: Maxfreeblocks)
//		Limit on tracked free extents.
//
// "maxallocations" (int64, default: Maxallocations)
//		Limit on live chunks, further allocations fail with
//		ErrorResourceExhausted.
func Defaultsettings(capacity int64) s.Settings {
	if capacity <= 0 {
		panicerr("capacity (%v) should be positive", capacity)
	}
	maxsize := capacity * Growthfactor
	if _, _, free := getsysmem(); free > 0 && maxsize > int64(free) {
		maxsize = int64(free)
	}
	if maxsize < capacity {
		maxsize = capacity
	}
	return s.Settings{
		"capacity":       capacity,
		"alignment":      Defaultalignment,
		"maxsize":        maxsize,
		"allow.resize":   true,
		"lenient":        false,
		"maxfreeblocks":  Maxfreeblocks,
		"maxallocations": Maxallocations,
	}
}

func validatesettings(setts s.Settings) {
	alignment := setts.Int64("alignment")
	if alignment < 8 || (alignment&(alignment-1)) != 0 {
		panicerr("alignment (%v) should be a power of 2 >= 8", alignment)
	}
	capacity, maxsize := setts.Int64("capacity"), setts.Int64("maxsize")
	if maxsize < capacity {
		panicerr("maxsize (%v) less than capacity (%v)", maxsize, capacity)
	} else if maxsize > Maxpoolsize {
		panicerr("pool cannot exceed %v bytes (%v)", Maxpoolsize, maxsize)
	}
	fmsg := "%v (%v) should be positive"
	if n := setts.Int64("maxfreeblocks"); n <= 0 {
		panic(fmt.Errorf(fmsg, "maxfreeblocks", n))
	}
	if n := setts.Int64("maxallocations"); n <= 0 {
		panic(fmt.Errorf(fmsg, "maxallocations", n))
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
