//go:build windows

package secure

import "unsafe"

import "github.com/bnclabs/golog"
import "golang.org/x/sys/windows"

func pinregion(region []byte) error {
	addr := uintptr(unsafe.Pointer(&region[0]))
	if err := windows.VirtualLock(addr, uintptr(len(region))); err != nil {
		log.Warnf("secure: VirtualLock of %v bytes failed: %v\n",
			len(region), err)
		return pinerror(err)
	}
	return nil
}

func unpinregion(region []byte) error {
	addr := uintptr(unsafe.Pointer(&region[0]))
	if err := windows.VirtualUnlock(addr, uintptr(len(region))); err != nil {
		if err == windows.ERROR_NOT_LOCKED {
			// pin never took effect, Disable stays safe.
			return nil
		}
		return pinerror(err)
	}
	return nil
}

func pinerror(err error) error {
	switch err {
	case windows.ERROR_ACCESS_DENIED:
		return ErrorPermissionDenied
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_WORKING_SET_QUOTA:
		return ErrorResourceUnavailable
	}
	return ErrorSystemCall
}
