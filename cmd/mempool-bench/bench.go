package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cloudfoundry/gosigar"
	"github.com/dustin/go-humanize"

	"github.com/berrym/lusush-sub003/malloc"
)

func runBench() error {
	if benchMinsize <= 0 || benchMaxsize < benchMinsize {
		return fmt.Errorf("bad size range [%v, %v]", benchMinsize, benchMaxsize)
	}
	reportsysmem("before")

	setts := malloc.Defaultsettings(benchCapacity)
	pool, err := malloc.NewPool(benchPooltype, setts)
	if err != nil {
		return fmt.Errorf("creating %v pool: %v", benchPooltype, err)
	}
	defer pool.Release()

	// chunks are held as logical offsets, Expand may relocate the
	// region and offsets are the handle that survives it.
	r := rand.New(rand.NewSource(benchSeed))
	live := make([]int64, 0, benchLive)
	freeat := func(i int) error {
		ptr, err := pool.Ptrat(live[i])
		if err != nil {
			return err
		}
		live = append(live[:i], live[i+1:]...)
		return pool.Free(ptr)
	}
	start := time.Now()
	for i := 0; i < benchRequests; i++ {
		size := benchMinsize + r.Int63n(benchMaxsize-benchMinsize+1)
		ptr, err := pool.Alloc(size)
		for err == malloc.ErrorOutofMemory {
			if err = pool.Expand(benchCapacity); err != nil {
				// ceiling reached, recycle the oldest chunk instead.
				if len(live) == 0 {
					return fmt.Errorf("pool exhausted with nothing live")
				}
				if err = freeat(0); err != nil {
					return err
				}
			}
			ptr, err = pool.Alloc(size)
		}
		if err != nil {
			return fmt.Errorf("alloc %v bytes: %v", size, err)
		}
		off, err := pool.Offsetof(ptr)
		if err != nil {
			return err
		}
		live = append(live, off)
		if len(live) >= benchLive {
			if err := freeat(r.Intn(len(live))); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	for len(live) > 0 {
		if err := freeat(len(live) - 1); err != nil {
			return err
		}
	}
	pool.Validate()
	report(pool, elapsed)
	reportsysmem("after")
	return nil
}

func report(pool *malloc.Pool, elapsed time.Duration) {
	stats := pool.Statistics()
	dohumanize := func(val int64) interface{} {
		if benchHuman {
			return humanize.Bytes(uint64(val))
		}
		return val
	}
	nblocks, largest := pool.Utilization()
	fmt.Printf("pool[%v]: %v requests in %v (%.0f/s)\n",
		stats.Pooltype, stats.Nallocs, elapsed.Round(time.Millisecond),
		float64(stats.Nallocs)/elapsed.Seconds())
	fmt.Printf("  allocated %v, freed %v, peak %v\n",
		dohumanize(stats.Totalallocated), dohumanize(stats.Totalfreed),
		dohumanize(stats.Peakusage))
	fmt.Printf("  %v free extents, largest %v\n",
		nblocks, dohumanize(largest))
}

func reportsysmem(when string) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return
	}
	fmt.Printf("sysmem %v: total %v, used %v, free %v\n", when,
		humanize.Bytes(mem.Total), humanize.Bytes(mem.Used),
		humanize.Bytes(mem.Free))
}
