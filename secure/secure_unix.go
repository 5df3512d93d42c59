//go:build unix && !linux

package secure

import "github.com/bnclabs/golog"
import "golang.org/x/sys/unix"

// pinregion mlock only, the BSDs have no MADV_DONTDUMP equivalent
// worth degrading over.
func pinregion(region []byte) error {
	if err := unix.Mlock(region); err != nil {
		log.Warnf("secure: mlock of %v bytes failed: %v\n", len(region), err)
		return pinerror(err)
	}
	return nil
}

func unpinregion(region []byte) error {
	if err := unix.Munlock(region); err != nil {
		return pinerror(err)
	}
	return nil
}

func pinerror(err error) error {
	switch err {
	case unix.EPERM, unix.EACCES:
		return ErrorPermissionDenied
	case unix.ENOMEM, unix.EAGAIN:
		return ErrorResourceUnavailable
	case unix.ENOSYS:
		return ErrorNotAvailable
	}
	return ErrorSystemCall
}
