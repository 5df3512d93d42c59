package malloc

import "github.com/bnclabs/golog"

// Expand implement api.Mallocer{} interface. Grows the region by at
// least additional bytes, remapping with move allowed. Bookkeeping is
// offset based, so a kernel relocation rebases every tracked extent
// for free, outstanding chunks keep their logical offsets.
func (pool *Pool) Expand(additional int64) error {
	if additional <= 0 {
		return ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()
	return pool.expand(additional)
}

func (pool *Pool) expand(additional int64) error {
	if pool.base == nil {
		panicerr("%v expand after release", pool.logprefix)
	}
	if !pool.allowresize {
		return ErrorInvalidState
	}
	grown := Alignup(additional, pool.alignment)
	newsize := pool.size + grown
	// newsize <= pool.size means the align-up or the sum wrapped
	// past MaxInt64.
	if grown <= 0 || newsize <= pool.size || newsize > pool.maxsize {
		return ErrorBufferOverflow
	}
	if newsize > int64(len(pool.base)) {
		base, err := growregion(pool.base, newsize)
		if err != nil {
			log.Errorf("%v remap to %v bytes failed: %v\n",
				pool.logprefix, newsize, err)
			return ErrorOutofMemory
		}
		pool.base = base
	}
	// new tail becomes one free extent, merged with a trailing
	// neighbor if the old tail was already free.
	tail := freeblock{pool.size, newsize - pool.size}
	pool.free += tail.size
	pool.size = newsize
	pool.insertfree(tail)
	pool.coalesce()
	log.Infof("%v expanded to %v bytes\n", pool.logprefix, newsize)
	return nil
}

// Compact implement api.Mallocer{} interface. Shrinks the region by
// up to reduction bytes. Fails if that would cut into live chunks.
// Platforms without an in-place shrink primitive truncate logically,
// the mapping stays oversized while the tracked size shrinks.
func (pool *Pool) Compact(reduction int64) error {
	if reduction <= 0 {
		return ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()
	return pool.compact(reduction)
}

func (pool *Pool) compact(reduction int64) error {
	if pool.base == nil {
		panicerr("%v compact after release", pool.logprefix)
	}
	if !pool.allowresize {
		return ErrorInvalidState
	}
	newsize := Alignup(pool.size-reduction, pool.alignment)
	if newsize <= 0 || newsize < pool.used {
		return ErrorBufferUnderflow
	}
	for off, alc := range pool.ledger {
		if off+alc.size > newsize {
			return ErrorBufferUnderflow
		}
	}

	// syscall first, bookkeeping is only touched once it cannot fail.
	base, physical, err := shrinkregion(pool.base, newsize)
	if err != nil {
		log.Errorf("%v remap to %v bytes failed: %v\n",
			pool.logprefix, newsize, err)
		return ErrorSystemCall
	}
	pool.base = base

	// drop free extents beyond the boundary, truncate a straddler.
	keep := pool.freeblocks[:0]
	for _, fb := range pool.freeblocks {
		if fb.off >= newsize {
			continue
		}
		if fb.off+fb.size > newsize {
			fb.size = newsize - fb.off
		}
		keep = append(keep, fb)
	}
	pool.freeblocks = keep
	pool.size = newsize
	pool.free = newsize - pool.used

	if physical {
		log.Infof("%v compacted to %v bytes\n", pool.logprefix, newsize)
	} else {
		log.Infof("%v truncated to %v bytes, mapping keeps %v\n",
			pool.logprefix, newsize, len(pool.base))
	}
	return nil
}

// AtomicResize expand or compact to newsize only if the pool still
// measures oldsize, guarding against a resize racing another resizer
// since the caller last observed the pool.
func (pool *Pool) AtomicResize(oldsize, newsize int64) error {
	if oldsize <= 0 || newsize <= 0 {
		return ErrorInvalidParameter
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.size != oldsize {
		return ErrorInvalidState
	}
	switch {
	case newsize > oldsize:
		return pool.expand(newsize - oldsize)
	case newsize < oldsize:
		return pool.compact(oldsize - newsize)
	}
	return nil
}
