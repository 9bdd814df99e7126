// bench-sweep fills fresh filters to increasing occupancy targets and
// reports where the relocation loop starts to fail.
//
// Usage:
//
//	go run ./scripts/bench-sweep --buckets 4096 --entries 4 --finger-bits 16 \
//	  --steps 10 --seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/probelab/swapnest/internal/experiment"
	"github.com/probelab/swapnest/pkg/alg/cuckoo"
)

// maxUint8Flag bounds the flag values that feed uint8 config fields.
const maxUint8Flag = 255

// percentScale converts a step fraction to a percentage.
const percentScale = 100

func main() {
	bucketsFlag := flag.Uint("buckets", 4096, "Number of buckets")
	entriesFlag := flag.Int("entries", 4, "Slots per bucket")
	fingerBitsFlag := flag.Int("finger-bits", 16, "Fingerprint width in bits (8 or 16)")
	maxSwapsFlag := flag.Int("max-swaps", 99, "Relocation budget per insert")
	stepsFlag := flag.Int("steps", 10, "Number of fill targets between 0 and 100%")
	seedFlag := flag.Uint64("seed", 42, "Workload seed")

	flag.Parse()

	steps := *stepsFlag
	if steps <= 0 {
		log.Fatal("--steps must be positive")
	}

	if *entriesFlag <= 0 || *entriesFlag > maxUint8Flag {
		log.Fatal("--entries must be between 1 and 255")
	}

	if *maxSwapsFlag < 0 || *maxSwapsFlag > maxUint8Flag {
		log.Fatal("--max-swaps must be between 0 and 255")
	}

	cfg := cuckoo.Config{
		FingerBits: uint8(*fingerBitsFlag),
		NumBuckets: uint32(*bucketsFlag),
		NumEntries: uint8(*entriesFlag),
		MaxSwaps:   uint8(*maxSwapsFlag),
	}

	seed := *seedFlag
	capacity := uint64(cfg.NumBuckets) * uint64(cfg.NumEntries)

	fmt.Printf("sweep: buckets=%d entries=%d finger_bits=%d max_swaps=%d capacity=%d seed=%d\n",
		cfg.NumBuckets, cfg.NumEntries, cfg.FingerBits, cfg.MaxSwaps, capacity, seed)
	fmt.Println("target%  attempted  failures  first_failure  mean_swaps  p99_swaps  load_factor")

	for step := 1; step <= steps; step++ {
		keys := int(capacity) * step / steps
		row := runStep(cfg, seed, keys)

		fmt.Printf("%6d%%  %9d  %8d  %13s  %10.3f  %9d  %11.4f\n",
			percentScale*step/steps, row.attempted, row.failures,
			row.firstFailure, row.meanSwaps, row.p99, row.loadFactor)
	}
}

type sweepRow struct {
	attempted    int
	failures     uint64
	firstFailure string
	meanSwaps    float64
	p99          uint64
	loadFactor   float64
}

// runStep fills a fresh filter with the requested number of keys and
// aggregates the relocation outcomes.
func runStep(cfg cuckoo.Config, seed uint64, keys int) sweepRow {
	rng := cuckoo.NewSplitMix64(seed)

	filter, err := cuckoo.NewWithRand(cfg, cuckoo.NewSplitMix64(rng.Uint64()))
	if err != nil {
		log.Fatalf("build filter: %v", err)
	}

	words := experiment.Words(keys, rng)
	experiment.Shuffle(words, rng)

	summary := experiment.NewSummary(cfg.MaxSwaps)

	for i, word := range words {
		swaps, insertErr := filter.InsertString(word)
		summary.Record(i, swaps, insertErr == nil)
	}

	firstFailure := "-"
	if summary.FirstFailure != experiment.FirstFailureNone {
		firstFailure = strconv.Itoa(summary.FirstFailure)
	}

	return sweepRow{
		attempted:    summary.Attempted,
		failures:     summary.Failures,
		firstFailure: firstFailure,
		meanSwaps:    summary.MeanSwaps(),
		p99:          summary.P99Swaps(),
		loadFactor:   filter.LoadFactor(),
	}
}
