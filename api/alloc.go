package api

import "unsafe"

// Mallocer interface for custom memory management.
type Mallocer interface {
	// Alloc a chunk of `n` bytes from pool. Allocated memory is
	// zero-filled and aligned to the pool's alignment.
	Alloc(n int64) (unsafe.Pointer, error)

	// Free chunk back to pool.
	Free(ptr unsafe.Pointer) error

	// Expand pool capacity by additional bytes. Outstanding chunks
	// keep their logical offsets even if the region relocates.
	Expand(additional int64) error

	// Compact pool capacity by reduction bytes. Fails if live chunks
	// sit beyond the new boundary.
	Compact(reduction int64) error

	// Info of memory accounting for this pool.
	Info() (size, used, free, peak int64)

	// Utilization returns the number of free extents and the largest
	// free extent, a coarse fragmentation signal.
	Utilization() (nblocks, largest int64)

	// Release pool and all its resources.
	Release()
}
