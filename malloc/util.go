package malloc

import "fmt"
import "errors"

var ErrorInvalidParameter = errors.New("malloc.invalidparameter")
var ErrorOutofMemory = errors.New("malloc.outofmemory")
var ErrorBufferOverflow = errors.New("malloc.bufferoverflow")
var ErrorBufferUnderflow = errors.New("malloc.bufferunderflow")
var ErrorInvalidState = errors.New("malloc.invalidstate")
var ErrorInvalidPointer = errors.New("malloc.invalidpointer")
var ErrorSystemCall = errors.New("malloc.systemcall")
var ErrorResourceExhausted = errors.New("malloc.resourceexhausted")

// Alignup round size up to the next multiple of alignment, which must
// be a power of 2.
func Alignup(size, alignment int64) int64 {
	return (size + alignment - 1) &^ (alignment - 1)
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

var zeroblkinit = make([]byte, 1024)

// zero-fill block in template sized strides.
func initblock(block []byte) {
	for len(block) >= len(zeroblkinit) {
		copy(block, zeroblkinit)
		block = block[len(zeroblkinit):]
	}
	if len(block) > 0 {
		copy(block, zeroblkinit)
	}
}
