// Package stats provides statistical readouts over value histograms.
//
// All functions operate on bin-count histograms where the bin index is
// the measured value (counts[v] observations of value v). Standard
// deviation is population stddev (divide by n, not n-1).
package stats

import "math"

// Well-known percentile thresholds.
const (
	PercentileMedian = 0.5
	PercentileP95    = 0.95
	PercentileP99    = 0.99
)

// Count returns the total number of observations in the histogram.
func Count(hist []uint64) uint64 {
	var total uint64

	for _, n := range hist {
		total += n
	}

	return total
}

// Mean returns the mean observed value.
// Returns 0 for an empty histogram.
func Mean(hist []uint64) float64 {
	total := Count(hist)
	if total == 0 {
		return 0
	}

	var sum float64

	for v, n := range hist {
		sum += float64(v) * float64(n)
	}

	return sum / float64(total)
}

// MeanStdDev returns the mean and population standard deviation of the
// observed values. Returns (0, 0) for an empty histogram.
func MeanStdDev(hist []uint64) (mean, stddev float64) {
	total := Count(hist)
	if total == 0 {
		return 0, 0
	}

	mean = Mean(hist)

	var sumSq float64

	for v, n := range hist {
		diff := float64(v) - mean
		sumSq += diff * diff * float64(n)
	}

	return mean, math.Sqrt(sumSq / float64(total))
}

// Percentile returns the smallest bin value at or below which at least
// a share p of the observations fall. p must be in [0, 1].
// Returns 0 for an empty histogram.
func Percentile(hist []uint64, p float64) uint64 {
	total := Count(hist)
	if total == 0 {
		return 0
	}

	rank := uint64(math.Ceil(p * float64(total)))
	if rank == 0 {
		rank = 1
	}

	var cumulative uint64

	for v, n := range hist {
		cumulative += n
		if cumulative >= rank {
			return uint64(v)
		}
	}

	return uint64(len(hist) - 1)
}

// Median returns the 50th percentile of the observed values.
// Returns 0 for an empty histogram.
func Median(hist []uint64) uint64 {
	return Percentile(hist, PercentileMedian)
}
