//go:build unix && !linux

package malloc

import "golang.org/x/sys/unix"

func mapregion(size int64) ([]byte, error) {
	prot, flags := unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON
	return unix.Mmap(-1, 0, int(size), prot, flags)
}

func unmapregion(block []byte) error {
	return unix.Munmap(block)
}

// growregion has no mremap to lean on outside linux, relocation is a
// map-copy-unmap.
func growregion(block []byte, newsize int64) ([]byte, error) {
	remapped, err := mapregion(newsize)
	if err != nil {
		return nil, err
	}
	copy(remapped, block)
	if err := unix.Munmap(block); err != nil {
		unix.Munmap(remapped)
		return nil, err
	}
	return remapped, nil
}

// shrinkregion no in-place shrink primitive, the mapping stays
// oversized and the pool truncates logically.
func shrinkregion(block []byte, newsize int64) ([]byte, bool, error) {
	return block, false, nil
}
