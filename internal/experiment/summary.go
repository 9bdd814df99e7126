package experiment

import "github.com/probelab/swapnest/pkg/alg/stats"

// FirstFailureNone marks a run in which every insert succeeded.
const FirstFailureNone = -1

// Summary aggregates per-attempt outcomes of a bench run. Every attempt
// lands in the histogram and the swap total, successes and failures alike;
// a failed attempt reports the full relocation budget it consumed.
type Summary struct {
	Attempted    int      `json:"attempted"     yaml:"attempted"`
	Successes    uint64   `json:"successes"     yaml:"successes"`
	Failures     uint64   `json:"failures"      yaml:"failures"`
	TotalSwaps   uint64   `json:"total_swaps"   yaml:"total_swaps"`
	FirstFailure int      `json:"first_failure" yaml:"first_failure"`
	Histogram    []uint64 `json:"histogram"     yaml:"histogram"`
}

// NewSummary returns a summary with one histogram bin per possible swap
// count, from zero to maxSwaps inclusive.
func NewSummary(maxSwaps uint8) *Summary {
	return &Summary{
		FirstFailure: FirstFailureNone,
		Histogram:    make([]uint64, int(maxSwaps)+1),
	}
}

// Record aggregates one insert attempt. attempt is the zero-based position
// of the key in the workload.
func (s *Summary) Record(attempt int, swaps uint8, ok bool) {
	s.Attempted++
	s.TotalSwaps += uint64(swaps)
	s.Histogram[swaps]++

	if ok {
		s.Successes++

		return
	}

	if s.Failures == 0 {
		s.FirstFailure = attempt
	}

	s.Failures++
}

// FailureRate returns the share of attempts that failed.
// Returns 0 before any attempt is recorded.
func (s *Summary) FailureRate() float64 {
	if s.Attempted == 0 {
		return 0
	}

	return float64(s.Failures) / float64(s.Attempted)
}

// MeanSwaps returns the mean relocation count across all attempts.
func (s *Summary) MeanSwaps() float64 {
	return stats.Mean(s.Histogram)
}

// MedianSwaps returns the median relocation count across all attempts.
func (s *Summary) MedianSwaps() uint64 {
	return stats.Median(s.Histogram)
}

// P95Swaps returns the 95th percentile relocation count.
func (s *Summary) P95Swaps() uint64 {
	return stats.Percentile(s.Histogram, stats.PercentileP95)
}

// P99Swaps returns the 99th percentile relocation count.
func (s *Summary) P99Swaps() uint64 {
	return stats.Percentile(s.Histogram, stats.PercentileP99)
}
