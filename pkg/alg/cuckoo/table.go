package cuckoo

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/probelab/swapnest/pkg/alg/internal/hashutil"
)

// emptySlot is the reserved empty-slot sentinel. Fingerprint derivation
// never produces it, so a zero slot always means vacant.
const emptySlot = 0

// Width-derived table parameters.
const (
	// fingerModulus8 reduces hashes to 8-bit fingerprints in [1, 255].
	fingerModulus8 = 1<<Width8 - 1

	// fingerModulus16 reduces hashes to 16-bit fingerprints in [1, 65535].
	fingerModulus16 = 1<<Width16 - 1

	// fingerShift selects the high 32 bits of a hash for derivation.
	fingerShift = 32

	// fingerBytes8 and fingerBytes16 are the encoded fingerprint sizes
	// used for partner-index hashing.
	fingerBytes8  = 1
	fingerBytes16 = 2

	// cellDigits8 and cellDigits16 size the grid columns to the largest
	// fingerprint of each width.
	cellDigits8  = 3
	cellDigits16 = 5

	// bucketLabelDigits sizes the bucket-index column of the grid.
	bucketLabelDigits = 3
)

// store is the width-specific slot table behind a Filter. The slot width
// is fixed by the concrete type at construction; no method inspects it
// again at runtime.
type store interface {
	// derive reduces a 64-bit key hash to a non-zero fingerprint of this
	// width.
	derive(sum uint64) uint16

	// sumFingerprint hashes the fingerprint value alone, encoded in as
	// many bytes as one slot occupies.
	sumFingerprint(finger uint16) uint64

	// tryInsert writes finger into the first empty slot of bucket and
	// reports whether one was found. A full bucket is left untouched.
	tryInsert(bucket uint32, finger uint16) bool

	// swap unconditionally overwrites the given slot with finger and
	// returns the prior occupant.
	swap(bucket uint32, entry uint8, finger uint16) uint16

	// writeGrid renders all buckets, one row each, into sb.
	writeGrid(sb *strings.Builder)
}

// slotWidth constrains the slot element types a table can hold.
type slotWidth interface {
	~uint8 | ~uint16
}

// table is the flat bucket array for one slot width. Bucket b occupies
// slots[b*numEntries : (b+1)*numEntries].
type table[W slotWidth] struct {
	slots       []W
	numEntries  uint8
	modulus     uint64
	fingerBytes int
	cellDigits  int
}

// newStore allocates the width-appropriate table for cfg. This is the
// only place the configured width is inspected.
func newStore(cfg Config) (store, error) {
	switch cfg.FingerBits {
	case Width8:
		return newTable[uint8](cfg, fingerModulus8, fingerBytes8, cellDigits8), nil
	case Width16:
		return newTable[uint16](cfg, fingerModulus16, fingerBytes16, cellDigits16), nil
	default:
		return nil, ErrUnsupportedWidth
	}
}

// newTable allocates a zeroed slot table for cfg.
func newTable[W slotWidth](cfg Config, modulus uint64, fingerBytes, cellDigits int) *table[W] {
	return &table[W]{
		slots:       make([]W, uint64(cfg.NumBuckets)*uint64(cfg.NumEntries)),
		numEntries:  cfg.NumEntries,
		modulus:     modulus,
		fingerBytes: fingerBytes,
		cellDigits:  cellDigits,
	}
}

// derive keeps the high 32 bits of the hash, reduces them modulo one
// less than the width's power of two, and shifts up by one so the result
// lands in [1, modulus]. The reduction makes the distribution slightly
// biased toward low fingerprints; that bias is part of the table's
// observable statistics and is kept as is.
func (t *table[W]) derive(sum uint64) uint16 {
	return uint16((sum>>fingerShift)%t.modulus) + 1
}

// sumFingerprint hashes the slot-width little-endian encoding of finger.
func (t *table[W]) sumFingerprint(finger uint16) uint64 {
	var buf [fingerBytes16]byte

	binary.LittleEndian.PutUint16(buf[:], finger)

	return hashutil.Sum64(buf[:t.fingerBytes])
}

// tryInsert scans the bucket's slots in order and claims the first empty
// one.
func (t *table[W]) tryInsert(bucket uint32, finger uint16) bool {
	start := uint64(bucket) * uint64(t.numEntries)
	end := start + uint64(t.numEntries)

	for i := start; i < end; i++ {
		if t.slots[i] == emptySlot {
			t.slots[i] = W(finger)

			return true
		}
	}

	return false
}

// swap overwrites one slot and hands back the evicted value.
func (t *table[W]) swap(bucket uint32, entry uint8, finger uint16) uint16 {
	i := uint64(bucket)*uint64(t.numEntries) + uint64(entry)
	evicted := t.slots[i]
	t.slots[i] = W(finger)

	return uint16(evicted)
}

// writeGrid renders one row per bucket: the bucket index, then one
// fixed-width cell per slot. Rows are newline-separated with no newline
// after the last row.
func (t *table[W]) writeGrid(sb *strings.Builder) {
	entries := uint64(t.numEntries)
	last := uint64(len(t.slots)) - 1

	for i, slot := range t.slots {
		pos := uint64(i)

		if pos%entries == 0 {
			fmt.Fprintf(sb, "%*d [", bucketLabelDigits, pos/entries)
		}

		fmt.Fprintf(sb, " %*d ", t.cellDigits, uint64(slot))

		if pos%entries == entries-1 {
			sb.WriteString("]")

			if pos != last {
				sb.WriteString("\n")
			}
		}
	}
}
