package malloc

import "sync"
import "unsafe"

// Default capacities for the typed pools, sized for one interactive
// editing session.
var defaultcapacities = map[string]int64{
	Bufferpool:     64 * 1024,
	Eventpool:      16 * 1024,
	Stringpool:     32 * 1024,
	Temppool:       16 * 1024,
	Historypool:    64 * 1024,
	Syntaxpool:     32 * 1024,
	Completionpool: 32 * 1024,
	Custompool:     64 * 1024,
}

// registry of default pools, one per semantic category, lazily
// created. The mutex guards the map only, never an allocation path.
var global = struct {
	sync.Mutex
	pools map[string]*Pool
}{pools: make(map[string]*Pool)}

// Getpool return the default pool for a semantic category, creating
// it on first use. Buffer pools are cache line aligned, every other
// category uses Defaultalignment. Default pools are lenient, a
// foreign or stale pointer handed to Free is ignored.
func Getpool(pooltype string) *Pool {
	global.Lock()
	defer global.Unlock()

	if pool, ok := global.pools[pooltype]; ok {
		return pool
	}
	capacity, ok := defaultcapacities[pooltype]
	if !ok {
		panicerr("unknown pool type %q", pooltype)
	}
	setts := Defaultsettings(capacity)
	setts["lenient"] = true
	if pooltype == Bufferpool {
		setts["alignment"] = Bufferalignment
	}
	pool, err := NewPool(pooltype, setts)
	if err != nil {
		panicerr("creating %v pool: %v", pooltype, err)
	}
	global.pools[pooltype] = pool
	return pool
}

// Alloc a zero-filled chunk from the default custom pool, aligned to
// Defaultalignment. Convenience entry point for consumers without a
// semantic category of their own.
func Alloc(n int64) (unsafe.Pointer, error) {
	return Getpool(Custompool).Alloc(n)
}

// Allocbuffer a zero-filled chunk from the default buffer pool,
// aligned to Bufferalignment.
func Allocbuffer(n int64) (unsafe.Pointer, error) {
	return Getpool(Bufferpool).Alloc(n)
}

// Free route ptr back to the default pool whose region contains it.
// Pointers that belong to no default pool are ignored. The registry
// lock is held across the routed free, so a concurrent Releasepools
// cannot release the owning pool between the range check and the
// free. Lock order is registry then pool, same as Releasepools.
func Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	global.Lock()
	defer global.Unlock()
	for _, pool := range global.pools {
		if pool.owns(ptr) {
			pool.Free(ptr)
			return
		}
	}
}

// Releasepools destroy every default pool, for editor shutdown and
// tests. Categories are re-created lazily afterwards.
func Releasepools() {
	global.Lock()
	defer global.Unlock()
	for pooltype, pool := range global.pools {
		pool.Release()
		delete(global.pools, pooltype)
	}
}
