package malloc

import "sort"
import "time"
import "unsafe"

import "github.com/bnclabs/golog"

// Alloc implement api.Mallocer{} interface. First-fit over the
// address ordered free list, splitting an oversized extent. The chunk
// is zero-filled before it is returned. A pool never grows itself,
// exhaustion fails with ErrorOutofMemory and the caller decides
// whether to Expand.
func (pool *Pool) Alloc(n int64) (unsafe.Pointer, error) {
	if n <= 0 {
		return nil, ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		if pool.lenient { // registry may have released under the caller
			return nil, ErrorInvalidState
		}
		panicerr("%v alloc after release", pool.logprefix)
	}
	if int64(len(pool.ledger)) >= pool.maxallocs {
		return nil, ErrorResourceExhausted
	}

	size := Alignup(n, pool.alignment)
	if size <= 0 { // align-up wrapped past MaxInt64, no pool can fit it
		return nil, ErrorOutofMemory
	}
	index := -1
	for i, fb := range pool.freeblocks {
		if fb.size >= size {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrorOutofMemory
	}

	fb := pool.freeblocks[index]
	if fb.size > size {
		// grant the prefix, the suffix stays free at its position.
		pool.freeblocks[index] = freeblock{fb.off + size, fb.size - size}
	} else {
		pool.freeblocks = append(
			pool.freeblocks[:index], pool.freeblocks[index+1:]...)
	}

	initblock(pool.base[fb.off : fb.off+size])
	pool.ledger[fb.off] = allocation{size: size, createdat: time.Now()}
	pool.used += size
	pool.free -= size
	pool.nallocs++
	pool.totalallocated += size
	if pool.used > pool.peakusage {
		pool.peakusage = pool.used
	}
	return unsafe.Pointer(&pool.base[fb.off]), nil
}

// Free implement api.Mallocer{} interface. The chunk's extent is
// re-inserted at its address ordered position and merged with any
// adjacent free extent. An unknown pointer fails with
// ErrorInvalidPointer, or is silently ignored on a lenient pool.
func (pool *Pool) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		if pool.lenient {
			return nil
		}
		return ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		if pool.lenient {
			return nil
		}
		panicerr("%v free after release", pool.logprefix)
	}
	off := int64(uintptr(ptr) - uintptr(unsafe.Pointer(&pool.base[0])))
	if off < 0 || off >= pool.size {
		if pool.lenient {
			return nil
		}
		return ErrorInvalidPointer
	}
	alc, ok := pool.ledger[off]
	if !ok { // foreign pointer, or a double free
		if pool.lenient {
			return nil
		}
		return ErrorInvalidPointer
	}

	delete(pool.ledger, off)
	pool.used -= alc.size
	pool.free += alc.size
	pool.nfrees++
	pool.totalfreed += alc.size
	pool.insertfree(freeblock{off, alc.size})
	pool.coalesce()
	return nil
}

// Offsetof return the logical offset of a live chunk. Offsets are
// the stable handle across relocating resizes, a consumer that keeps
// a chunk across Expand holds the offset and resolves it at the point
// of use with Ptrat.
func (pool *Pool) Offsetof(ptr unsafe.Pointer) (int64, error) {
	if ptr == nil {
		return -1, ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		panicerr("%v offsetof after release", pool.logprefix)
	}
	off := int64(uintptr(ptr) - uintptr(unsafe.Pointer(&pool.base[0])))
	if off < 0 || off >= pool.size {
		return -1, ErrorInvalidPointer
	}
	if _, ok := pool.ledger[off]; !ok {
		return -1, ErrorInvalidPointer
	}
	return off, nil
}

// Ptrat resolve a live chunk's logical offset to its current address.
func (pool *Pool) Ptrat(off int64) (unsafe.Pointer, error) {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.base == nil {
		panicerr("%v ptrat after release", pool.logprefix)
	}
	if _, ok := pool.ledger[off]; !ok {
		return nil, ErrorInvalidPointer
	}
	return unsafe.Pointer(&pool.base[off]), nil
}

// insertfree put fb at its address sorted slot.
func (pool *Pool) insertfree(fb freeblock) {
	index := sort.Search(len(pool.freeblocks), func(i int) bool {
		return pool.freeblocks[i].off > fb.off
	})
	pool.freeblocks = append(pool.freeblocks, freeblock{})
	copy(pool.freeblocks[index+1:], pool.freeblocks[index:])
	pool.freeblocks[index] = fb
	if int64(len(pool.freeblocks)) > pool.maxfblocks && !pool.fbwarned {
		log.Warnf("%v fragmented into more than %v free extents\n",
			pool.logprefix, pool.maxfblocks)
		pool.fbwarned = true
	}
}

// coalesce single pass over the ordered free list, merging every
// extent whose end meets the next extent's start.
func (pool *Pool) coalesce() {
	if len(pool.freeblocks) < 2 {
		return
	}
	merged := pool.freeblocks[:1]
	for _, fb := range pool.freeblocks[1:] {
		last := &merged[len(merged)-1]
		if last.off+last.size == fb.off {
			last.size += fb.size
		} else {
			merged = append(merged, fb)
		}
	}
	pool.freeblocks = merged
}
