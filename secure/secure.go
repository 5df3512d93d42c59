package secure

import "errors"
import "runtime"
import "unsafe"

var ErrorInvalidParameter = errors.New("secure.invalidparameter")
var ErrorPermissionDenied = errors.New("secure.permissiondenied")
var ErrorResourceUnavailable = errors.New("secure.resourceunavailable")
var ErrorNotAvailable = errors.New("secure.notavailable")
var ErrorSystemCall = errors.New("secure.systemcall")

// Enable pin [ptr, ptr+n) against swap to disk. Pinning covers whole
// pages, the region's pages stay resident until Disable.
func Enable(ptr unsafe.Pointer, n int64) error {
	if ptr == nil || n <= 0 {
		return ErrorInvalidParameter
	}
	return pinregion(regionslice(ptr, n))
}

// Disable reverse the pin. Safe to call even if Enable was never
// called or never took effect.
func Disable(ptr unsafe.Pointer, n int64) error {
	if ptr == nil || n <= 0 {
		return ErrorInvalidParameter
	}
	return unpinregion(regionslice(ptr, n))
}

// Clear overwrite every byte of [ptr, ptr+n) with zero. The write
// goes through a non-elidable byte store, a later read observes only
// zeros regardless of what the optimizer knows about the region's
// remaining lifetime.
func Clear(ptr unsafe.Pointer, n int64) error {
	if ptr == nil || n <= 0 {
		return ErrorInvalidParameter
	}
	region := regionslice(ptr, n)
	for i := range region {
		region[i] = 0
	}
	runtime.KeepAlive(&region[0])
	return nil
}

func regionslice(ptr unsafe.Pointer, n int64) []byte {
	return unsafe.Slice((*byte)(ptr), int(n))
}
