// Package secure pins caller supplied regions against swap and
// guarantees their erasure, protecting secrets such as passwords and
// tokens handled by the line-editor.
//
// The guard never allocates or owns memory. It only flips OS level
// page protection on regions the caller obtained elsewhere, typically
// from a malloc pool, and it takes no pool lock since it never
// touches pool bookkeeping.
//
// Any failure from Enable is a graceful degradation signal, not a
// fatal error. Protecting secrets is best effort on systems lacking
// the required privilege, callers log the failure and proceed without
// the pin. Clear stays correct whether or not Enable ever succeeded.
//
// Contract: call Clear before a pinned, or meant to be pinned, region
// is released back to a pool, and Disable before the memory's
// lifetime ends.
package secure
