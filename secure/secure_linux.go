//go:build linux

package secure

import "github.com/bnclabs/golog"
import "golang.org/x/sys/unix"

// pinregion mlock plus exclusion from core dumps.
func pinregion(region []byte) error {
	if err := unix.Mlock(region); err != nil {
		log.Warnf("secure: mlock of %v bytes failed: %v\n", len(region), err)
		return pinerror(err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		// the pin holds, dump exclusion is advisory only.
		log.Debugf("secure: madvise(DONTDUMP): %v\n", err)
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
