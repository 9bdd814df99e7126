// Package trace records per-attempt traces of bench runs and persists them
// as compact LZ4-compressed artifacts, so runs can be replayed and compared
// offline.
package trace

import "errors"

// Sentinel errors for trace decoding.
var (
	// ErrBadMagic is returned when a payload does not start with the trace
	// file magic.
	ErrBadMagic = errors.New("trace: bad magic")

	// ErrUnsupportedVersion is returned for format versions this build
	// cannot read.
	ErrUnsupportedVersion = errors.New("trace: unsupported version")

	// ErrCorrupt is returned when a payload fails structural validation.
	ErrCorrupt = errors.New("trace: corrupt payload")
)

// Trace is the per-attempt record of a bench run: the relocation count of
// every insert attempt and the filter occupancy after it, together with the
// table geometry and seed needed to reproduce the run.
//
// The fields mirror the bench configuration rather than referencing it, so
// the artifact stays decodable without the originating config.
type Trace struct {
	FingerBits uint8
	NumBuckets uint32
	NumEntries uint8
	MaxSwaps   uint8
	Seed       uint64

	// Swaps holds the relocation count of each attempt in order.
	Swaps []uint32

	// Occupancy holds the occupied-slot counter after each attempt.
	// The series is non-decreasing, which makes its delta form compress
	// well.
	Occupancy []uint32
}

// Append records one insert attempt.
func (t *Trace) Append(swaps uint8, used uint64) {
	t.Swaps = append(t.Swaps, uint32(swaps))
	t.Occupancy = append(t.Occupancy, uint32(used))
}

// Len returns the number of recorded attempts.
func (t *Trace) Len() int {
	return len(t.Swaps)
}
