package malloc

import "math"
import "math/rand"
import "testing"
import "unsafe"

func TestNewpool(t *testing.T) {
	pool, err := NewPool(Stringpool, Defaultsettings(5001))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	size, used, free, peak := pool.Info()
	if size != 5008 { // rounded up to alignment
		t.Errorf("expected %v, got %v", 5008, size)
	} else if used != 0 {
		t.Errorf("expected %v, got %v", 0, used)
	} else if free != size {
		t.Errorf("expected %v, got %v", size, free)
	} else if peak != 0 {
		t.Errorf("expected %v, got %v", 0, peak)
	}
	if nblocks, largest := pool.Utilization(); nblocks != 1 {
		t.Errorf("expected %v, got %v", 1, nblocks)
	} else if largest != size {
		t.Errorf("expected %v, got %v", size, largest)
	}
	pool.Validate()
}

func TestNewpoolClamp(t *testing.T) {
	pool, err := NewPool(Temppool, Defaultsettings(100))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	// sub-page capacities still map a whole page.
	if size, _, _, _ := pool.Info(); size != Minpoolsize {
		t.Errorf("expected %v, got %v", Minpoolsize, size)
	}
	if err := pool.Expand(1); err != ErrorBufferOverflow { // maxsize == size
		t.Errorf("expected %v, got %v", ErrorBufferOverflow, err)
	}
	pool.Validate()
}

func TestNewpoolInvalid(t *testing.T) {
	setts := Defaultsettings(4096)
	setts["capacity"] = int64(0)
	if _, err := NewPool(Temppool, setts); err != ErrorInvalidParameter {
		t.Errorf("expected %v, got %v", ErrorInvalidParameter, err)
	}
}

func TestAllocAlignment(t *testing.T) {
	pool, err := NewPool(Eventpool, Defaultsettings(64 * 1024))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	for n := int64(1); n <= 256; n++ {
		ptr, err := pool.Alloc(n)
		if err != nil {
			t.Fatalf("alloc %v: unexpected error %v", n, err)
		}
		if uintptr(ptr)%uintptr(Defaultalignment) != 0 {
			t.Errorf("alloc %v: pointer %p not %v byte aligned",
				n, ptr, Defaultalignment)
		}
	}
	pool.Validate()
}

func TestAllocZerofill(t *testing.T) {
	pool, err := NewPool(Temppool, Defaultsettings(4096))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	ptr, err := pool.Alloc(128)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	chunk := unsafe.Slice((*byte)(ptr), 128)
	for i := range chunk {
		chunk[i] = 0xff
	}
	if err := pool.Free(ptr); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// first-fit lands on the same extent, stale bytes must not leak.
	ptr, err = pool.Alloc(128)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	chunk = unsafe.Slice((*byte)(ptr), 128)
	for i, b := range chunk {
		if b != 0 {
			t.Fatalf("byte %v: expected 0, got %#x", i, b)
		}
	}
}

func TestAllocEdge(t *testing.T) {
	pool, err := NewPool(Custompool, Defaultsettings(4096))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	if _, err := pool.Alloc(0); err != ErrorInvalidParameter {
		t.Errorf("expected %v, got %v", ErrorInvalidParameter, err)
	}
	if _, err := pool.Alloc(-10); err != ErrorInvalidParameter {
		t.Errorf("expected %v, got %v", ErrorInvalidParameter, err)
	}
	if _, err := pool.Alloc(8192); err != ErrorOutofMemory {
		t.Errorf("expected %v, got %v", ErrorOutofMemory, err)
	}
	// align-up of a near-MaxInt64 request wraps, it must fail like
	// any other no-fit request instead of corrupting the scan.
	if _, err := pool.Alloc(math.MaxInt64); err != ErrorOutofMemory {
		t.Errorf("expected %v, got %v", ErrorOutofMemory, err)
	}
	if _, err := pool.Alloc(math.MaxInt64 - 7); err != ErrorOutofMemory {
		t.Errorf("expected %v, got %v", ErrorOutofMemory, err)
	}
	pool.Validate()
}

func TestFirstfit(t *testing.T) {
	setts := Defaultsettings(4096)
	pool, err := NewPool(Bufferpool, setts)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	a, _ := pool.Alloc(100)
	b, _ := pool.Alloc(200)
	c, _ := pool.Alloc(50)
	if a == nil || b == nil || c == nil {
		t.Fatalf("unexpected allocation failure")
	}
	if err := pool.Free(b); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// d fits b's hole, first-fit must reuse it over the unused tail.
	d, err := pool.Alloc(150)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if d != b {
		t.Errorf("expected %p, got %p", b, d)
	}
	pool.Validate()
}

func TestCoalesce(t *testing.T) {
	for _, order := range [][2]int{{0, 1}, {1, 0}} {
		pool, err := NewPool(Historypool, Defaultsettings(4096))
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		ptrs := make([]unsafe.Pointer, 2)
		for i := range ptrs {
			if ptrs[i], err = pool.Alloc(64); err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		}
		for _, index := range order {
			if err := pool.Free(ptrs[index]); err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		}
		size, _, _, _ := pool.Info()
		if nblocks, largest := pool.Utilization(); nblocks != 1 {
			t.Errorf("order %v: expected 1 free extent, got %v", order, nblocks)
		} else if largest != size {
			t.Errorf("order %v: expected %v, got %v", order, size, largest)
		}
		pool.Validate()
		pool.Release()
	}
}

func TestRoundtrip(t *testing.T) {
	pool, err := NewPool(Syntaxpool, Defaultsettings(8192))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	if _, err := pool.Alloc(100); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	nblocks, largest := pool.Utilization()
	_, used, free, _ := pool.Info()

	ptr, err := pool.Alloc(500)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := pool.Free(ptr); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// coalescing restores the exact pre-allocation layout.
	if n, l := pool.Utilization(); n != nblocks || l != largest {
		t.Errorf("expected {%v %v}, got {%v %v}", nblocks, largest, n, l)
	}
	if _, u, f, _ := pool.Info(); u != used || f != free {
		t.Errorf("expected {%v %v}, got {%v %v}", used, free, u, f)
	}
}

func TestFreeInvalid(t *testing.T) {
	pool, err := NewPool(Custompool, Defaultsettings(4096))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	if err := pool.Free(nil); err != ErrorInvalidParameter {
		t.Errorf("expected %v, got %v", ErrorInvalidParameter, err)
	}
	ptr, _ := pool.Alloc(64)
	if err := pool.Free(ptr); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := pool.Free(ptr); err != ErrorInvalidPointer { // double free
		t.Errorf("expected %v, got %v", ErrorInvalidPointer, err)
	}

	var foreign [64]byte
	if err := pool.Free(unsafe.Pointer(&foreign[0])); err != ErrorInvalidPointer {
		t.Errorf("expected %v, got %v", ErrorInvalidPointer, err)
	}
}

func TestFreeLenient(t *testing.T) {
	setts := Defaultsettings(4096)
	setts["lenient"] = true
	pool, err := NewPool(Custompool, setts)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	ptr, _ := pool.Alloc(64)
	if err := pool.Free(ptr); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := pool.Free(ptr); err != nil { // double free ignored
		t.Errorf("expected nil, got %v", err)
	}
	if err := pool.Free(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestLenientAfterRelease(t *testing.T) {
	setts := Defaultsettings(4096)
	setts["lenient"] = true
	pool, err := NewPool(Custompool, setts)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	ptr, _ := pool.Alloc(64)
	pool.Release()

	// a lenient pool degrades instead of panicking when a racing
	// release got there first.
	if err := pool.Free(ptr); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if _, err := pool.Alloc(64); err != ErrorInvalidState {
		t.Errorf("expected %v, got %v", ErrorInvalidState, err)
	}
}

func TestResourceExhausted(t *testing.T) {
	setts := Defaultsettings(4096)
	setts["maxallocations"] = int64(2)
	pool, err := NewPool(Eventpool, setts)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	for i := 0; i < 2; i++ {
		if _, err := pool.Alloc(16); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if _, err := pool.Alloc(16); err != ErrorResourceExhausted {
		t.Errorf("expected %v, got %v", ErrorResourceExhausted, err)
	}
}

func TestFragmentationWarning(t *testing.T) {
	setts := Defaultsettings(4096)
	setts["maxfreeblocks"] = int64(2)
	pool, err := NewPool(Stringpool, setts)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	ptrs := make([]unsafe.Pointer, 8)
	for i := range ptrs {
		if ptrs[i], err = pool.Alloc(64); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	// freeing alternate chunks leaves uncoalescable holes.
	for i := 0; i < len(ptrs); i += 2 {
		if err := pool.Free(ptrs[i]); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if nblocks, _ := pool.Utilization(); nblocks <= 2 {
		t.Fatalf("expected more than 2 free extents, got %v", nblocks)
	}
	if !pool.fbwarned {
		t.Errorf("expected the fragmentation warning to have fired")
	}
	// crossing the cap degrades to a one-shot warning, allocation
	// keeps working.
	if _, err := pool.Alloc(64); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	pool.Validate()
}

func TestOffsetHandles(t *testing.T) {
	pool, err := NewPool(Historypool, Defaultsettings(4096))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	ptr, _ := pool.Alloc(64)
	off, err := pool.Offsetof(ptr)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if resolved, err := pool.Ptrat(off); err != nil {
		t.Fatalf("unexpected error %v", err)
	} else if resolved != ptr {
		t.Errorf("expected %p, got %p", ptr, resolved)
	}
	if _, err := pool.Ptrat(off + 16); err != ErrorInvalidPointer {
		t.Errorf("expected %v, got %v", ErrorInvalidPointer, err)
	}
	if _, err := pool.Offsetof(nil); err != ErrorInvalidParameter {
		t.Errorf("expected %v, got %v", ErrorInvalidParameter, err)
	}
}

func TestRelease(t *testing.T) {
	var nilpool *Pool
	nilpool.Release() // safe on nil

	pool, err := NewPool(Temppool, Defaultsettings(4096))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := pool.Alloc(64); err != nil { // released while outstanding
		t.Fatalf("unexpected error %v", err)
	}
	pool.Release()

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on alloc after release")
		}
	}()
	pool.Alloc(64)
}

func TestValidateChurn(t *testing.T) {
	pool, err := NewPool(Bufferpool, Defaultsettings(64 * 1024))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer pool.Release()

	r := rand.New(rand.NewSource(42))
	live := make([]unsafe.Pointer, 0, 256)
	for i := 0; i < 10000; i++ {
		if len(live) < cap(live) && r.Intn(3) > 0 {
			ptr, err := pool.Alloc(1 + r.Int63n(300))
			if err == ErrorOutofMemory || err == ErrorResourceExhausted {
				// churn on, free something below
			} else if err != nil {
				t.Fatalf("unexpected error %v", err)
			} else {
				live = append(live, ptr)
			}
		}
		if len(live) > 0 && (r.Intn(3) == 0 || len(live) == cap(live)) {
			victim := r.Intn(len(live))
			if err := pool.Free(live[victim]); err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			live = append(live[:victim], live[victim+1:]...)
		}
		if i%1000 == 0 {
			pool.Validate()
		}
	}
	for _, ptr := range live {
		if err := pool.Free(ptr); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	pool.Validate()
	if nblocks, _ := pool.Utilization(); nblocks != 1 {
		t.Errorf("expected 1 free extent, got %v", nblocks)
	}
}
