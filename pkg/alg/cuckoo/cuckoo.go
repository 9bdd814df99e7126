// Package cuckoo provides an insert-only cuckoo hash filter with
// dual-width fingerprint slots and bounded random-walk relocation.
//
// The filter records items as small non-zero fingerprints in a flat
// bucket table. Every item has two candidate buckets: a primary index
// from the item's own hash and a partner index from a fresh hash of the
// fingerprint alone. When both candidates are full, Insert relocates
// existing fingerprints along a random walk of at most MaxSwaps steps;
// if the budget runs out the insertion fails and the displaced
// fingerprint is dropped. Insertion therefore always completes in
// O(MaxSwaps) work.
//
// The partner index is NOT the XOR partial-key scheme: it re-hashes the
// fingerprint independently of the primary index, so following the
// partner mapping twice does not return to the origin bucket.
//
// There is no membership query, no deletion, and no resizing; occupancy
// grows monotonically. A Filter is not safe for concurrent use; guard it
// with an external mutex if shared.
package cuckoo

import (
	"errors"
	"strings"

	"github.com/probelab/swapnest/pkg/alg/internal/hashutil"
)

// Supported slot widths.
const (
	// Width8 selects 8-bit slots holding fingerprints in [1, 255].
	Width8 = 8

	// Width16 selects 16-bit slots holding fingerprints in [1, 65535].
	Width16 = 16
)

// candidateBuckets is the number of candidate buckets per item.
const candidateBuckets = 2

var (
	// ErrUnsupportedWidth is returned by New when Config.FingerBits is
	// neither Width8 nor Width16.
	ErrUnsupportedWidth = errors.New("cuckoo: finger bits must be 8 or 16")

	// ErrSwapsExhausted is returned by Insert when the relocation budget
	// is spent without finding an empty slot; the item is not stored.
	ErrSwapsExhausted = errors.New("cuckoo: relocation budget exhausted")
)

// Config carries the immutable construction parameters of a Filter.
type Config struct {
	// FingerBits is the slot width in bits, Width8 or Width16.
	FingerBits uint8

	// NumBuckets is the bucket count. Must be positive.
	NumBuckets uint32

	// NumEntries is the slot count per bucket. Must be positive.
	NumEntries uint8

	// MaxSwaps bounds the relocation walk of a single insertion.
	// Zero means direct placement only.
	MaxSwaps uint8
}

// Filter is an insert-only cuckoo filter. All mutation happens through
// Insert and InsertString; the metric accessors and String are pure
// reads.
type Filter struct {
	fingerBits uint8
	numBuckets uint32
	numEntries uint8
	maxSwaps   uint8
	slots      store
	used       uint64
	rng        Source
}

// New creates a Filter for cfg, drawing relocation randomness from a
// process-seeded source. Construction fails only for an unsupported
// slot width.
func New(cfg Config) (*Filter, error) {
	return NewWithRand(cfg, NewSplitMix64(RandomSeed()))
}

// NewWithRand creates a Filter with an injected random source. A seeded
// source makes the full insertion sequence reproducible.
func NewWithRand(cfg Config, src Source) (*Filter, error) {
	slots, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	return &Filter{
		fingerBits: cfg.FingerBits,
		numBuckets: cfg.NumBuckets,
		numEntries: cfg.NumEntries,
		maxSwaps:   cfg.MaxSwaps,
		slots:      slots,
		rng:        src,
	}, nil
}

// Insert records key in the filter and returns the number of relocation
// swaps it took: 0 means direct placement in a candidate bucket, n > 0
// means success after n evictions. On ErrSwapsExhausted the count equals
// MaxSwaps and the key was dropped. Duplicate keys are not detected;
// every successful call occupies a fresh slot.
func (f *Filter) Insert(key []byte) (uint8, error) {
	return f.insert(hashutil.Sum64(key))
}

// InsertString records key without copying it to a byte slice. It is
// hash-identical to Insert on the same bytes.
func (f *Filter) InsertString(key string) (uint8, error) {
	return f.insert(hashutil.Sum64String(key))
}

// Used returns the number of successful insertions so far. Duplicates
// count separately; failed insertions do not count.
func (f *Filter) Used() uint64 {
	return f.used
}

// Capacity returns the total slot count, NumBuckets times NumEntries.
func (f *Filter) Capacity() uint64 {
	return uint64(f.numBuckets) * uint64(f.numEntries)
}

// LoadFactor returns the occupancy ratio, Used over Capacity.
func (f *Filter) LoadFactor() float64 {
	return float64(f.used) / float64(f.Capacity())
}

// Bits returns the theoretical table footprint in bits, Capacity times
// the slot width. It does not depend on occupancy.
func (f *Filter) Bits() uint64 {
	return f.Capacity() * uint64(f.fingerBits)
}

// String renders every bucket as one row of fixed-width slot cells,
// 3-digit cells for 8-bit slots and 5-digit cells for 16-bit slots.
// Intended for eyeballing small tables, not for machine parsing.
func (f *Filter) String() string {
	var sb strings.Builder

	f.slots.writeGrid(&sb)

	return sb.String()
}

// insert places an already-hashed key. used advances only here, exactly
// once per successful placement.
func (f *Filter) insert(sum uint64) (uint8, error) {
	swaps, err := f.placeOrRelocate(sum)
	if err == nil {
		f.used++
	}

	return swaps, err
}

// placeOrRelocate tries direct placement in both candidate buckets and
// falls back to the bounded relocation walk when both are full.
func (f *Filter) placeOrRelocate(sum uint64) (uint8, error) {
	finger := f.slots.derive(sum)

	primary := f.bucketIndex(sum)
	if f.slots.tryInsert(primary, finger) {
		return 0, nil
	}

	partner := f.partnerIndex(finger)
	if f.slots.tryInsert(partner, finger) {
		return 0, nil
	}

	return f.relocate(primary, partner, finger)
}

// relocate evicts random slot occupants until a displaced fingerprint
// finds an empty slot or the swap budget runs out. The walk always moves
// to the partner index of the evicted fingerprint; the evictee's
// original primary index is unknown at this point and stays unknown.
func (f *Filter) relocate(primary, partner uint32, finger uint16) (uint8, error) {
	bucket := primary
	if f.rng.IntN(candidateBuckets) == 1 {
		bucket = partner
	}

	for swaps := 1; swaps <= int(f.maxSwaps); swaps++ {
		entry := uint8(f.rng.IntN(int(f.numEntries)))
		finger = f.slots.swap(bucket, entry, finger)
		bucket = f.partnerIndex(finger)

		if f.slots.tryInsert(bucket, finger) {
			return uint8(swaps), nil
		}
	}

	return f.maxSwaps, ErrSwapsExhausted
}

// bucketIndex maps a 64-bit hash to a bucket via its low 32 bits.
func (f *Filter) bucketIndex(sum uint64) uint32 {
	return uint32(sum) % f.numBuckets
}

// partnerIndex computes the alternate bucket for a fingerprint from a
// fresh hash of the fingerprint value alone.
func (f *Filter) partnerIndex(finger uint16) uint32 {
	return f.bucketIndex(f.slots.sumFingerprint(finger))
}
