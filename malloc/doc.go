// Package malloc supplies custom memory management for the
// line-editor, with a limited scope:
//
//   - Each Pool owns one anonymous private mapping obtained from the
//     OS and serves one semantic category of allocation: buffer,
//     event, string, temp, history, syntax, completion or custom.
//   - Allocation is first-fit over an address-ordered list of free
//     extents. An oversized extent is split, the prefix is granted
//     and the suffix stays free at its position.
//   - Freed extents are re-inserted in address order and adjacent
//     extents are merged, so fragmentation is bounded by the number
//     of non-adjacent free ranges, not by the number of frees.
//   - Every granted chunk is zero-filled and aligned to the pool's
//     alignment. Callers rely on the zero-fill instead of re-zeroing
//     hot buffers.
//   - Pools grow and shrink by remapping pages. Bookkeeping is kept
//     as offsets into the region, so a relocating remap never needs
//     to rewalk and patch tracked addresses.
//   - Types and functions exported by this package are thread safe,
//     one mutex per pool. Pools never share state, operations on
//     different pools proceed in parallel.
//
// A pool does not grow itself on exhaustion. Alloc fails cheaply with
// ErrorOutofMemory and the caller decides whether to Expand, keeping
// the allocation path non-blocking.
package malloc
