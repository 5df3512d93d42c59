package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/berrym/lusush-sub003/malloc"
)

var (
	benchPooltype string
	benchCapacity int64
	benchRequests int
	benchMinsize  int64
	benchMaxsize  int64
	benchLive     int
	benchSeed     int64
	benchHuman    bool
)

var rootCmd = &cobra.Command{
	Use:   "mempool-bench",
	Short: "Exercise the line-editor pool allocator",
	Long: `mempool-bench drives a seeded random alloc/free workload against a
single pool and reports the pool's statistics next to system memory,
before and after. Use it to eyeball fragmentation and allocation
rates for a pool configuration ahead of wiring it into the editor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench()
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&benchPooltype, "pool", malloc.Custompool,
		"pool category to exercise")
	flags.Int64Var(&benchCapacity, "capacity", 1024*1024,
		"initial pool capacity in bytes")
	flags.IntVar(&benchRequests, "n", 100000, "total number of allocations")
	flags.Int64Var(&benchMinsize, "min", 16, "minimum allocation size")
	flags.Int64Var(&benchMaxsize, "max", 512, "maximum allocation size")
	flags.IntVar(&benchLive, "live", 512,
		"number of chunks kept live before freeing begins")
	flags.Int64Var(&benchSeed, "seed", 42, "workload seed")
	flags.BoolVar(&benchHuman, "humanize", true, "humanize byte counts")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
