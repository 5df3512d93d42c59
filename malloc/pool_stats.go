package malloc

import "time"

import "github.com/bnclabs/golog"
import gohumanize "github.com/dustin/go-humanize"

// Statistics snapshot of a pool's accounting. Rates are lifetime
// counters over wall-clock seconds since pool creation, a running
// average meant as a coarse health signal, not a windowed rate.
type Statistics struct {
	Pooltype         string
	Totalallocated   int64 // lifetime bytes granted
	Totalfreed       int64 // lifetime bytes returned
	Currentusage     int64
	Peakusage        int64
	Nallocs          int64
	Nfrees           int64
	Allocationrate   float64 // allocations per second
	Deallocationrate float64 // frees per second
	Uptime           time.Duration
}

// Statistics return a consistent snapshot, safe to call concurrently
// with mutation.
func (pool *Pool) Statistics() Statistics {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	stats := Statistics{
		Pooltype:       pool.pooltype,
		Totalallocated: pool.totalallocated,
		Totalfreed:     pool.totalfreed,
		Currentusage:   pool.used,
		Peakusage:      pool.peakusage,
		Nallocs:        pool.nallocs,
		Nfrees:         pool.nfrees,
		Uptime:         time.Since(pool.createdat),
	}
	if secs := stats.Uptime.Seconds(); secs > 0 {
		stats.Allocationrate = float64(pool.nallocs) / secs
		stats.Deallocationrate = float64(pool.nfrees) / secs
	}
	return stats
}

// Logstatistics render the snapshot through the configured logger.
func (pool *Pool) Logstatistics(humanize bool) {
	stats := pool.Statistics()
	dohumanize := func(val int64) interface{} {
		if humanize {
			return gohumanize.Bytes(uint64(val))
		}
		return val
	}
	alloc := dohumanize(stats.Totalallocated)
	freed := dohumanize(stats.Totalfreed)
	use := dohumanize(stats.Currentusage)
	peak := dohumanize(stats.Peakusage)
	fmsg := "%v allocated %v freed %v inuse %v peak %v\n"
	log.Infof(fmsg, pool.logprefix, alloc, freed, use, peak)
	fmsg = "%v rates: %.2f allocs/s, %.2f frees/s over %v\n"
	log.Infof(fmsg, pool.logprefix, stats.Allocationrate,
		stats.Deallocationrate, stats.Uptime.Round(time.Second))
}
