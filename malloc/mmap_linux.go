//go:build linux

package malloc

import "golang.org/x/sys/unix"

func mapregion(size int64) ([]byte, error) {
	prot, flags := unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON
	return unix.Mmap(-1, 0, int(size), prot, flags)
}

func unmapregion(block []byte) error {
	return unix.Munmap(block)
}

// growregion remap with move allowed, the kernel relocates the region
// when the tail cannot extend in place.
func growregion(block []byte, newsize int64) ([]byte, error) {
	return unix.Mremap(block, int(newsize), unix.MREMAP_MAYMOVE)
}

// shrinkregion remap in place, returns true when pages were handed
// back to the OS.
func shrinkregion(block []byte, newsize int64) ([]byte, bool, error) {
	remapped, err := unix.Mremap(block, int(newsize), 0)
	if err != nil {
		return block, false, err
	}
	return remapped, true, nil
}
