// Package mempool implements the memory subsystem backing lusush's
// interactive line-editor. Editing sits on the latency path of every
// keystroke, so buffers, events, strings and history records are
// carved out of typed, pre-sized pools instead of funneling every
// allocation through the general purpose allocator.
//
// api:
//
// Interface specification to access pool allocators.
//
// malloc:
//
// Pool allocator over anonymous mapped memory. First-fit allocation
// with block splitting, address-ordered coalescing on free, pool
// growth and shrink via page remapping, allocation statistics.
//
// secure:
//
// Best-effort protection for sensitive buffers. Pin regions against
// swap and guarantee their erasure before release.
package mempool
