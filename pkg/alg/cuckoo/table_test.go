package cuckoo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/swapnest/pkg/alg/internal/hashutil"
)

// newTestStore builds a store directly, bypassing the Filter facade.
func newTestStore(t *testing.T, width uint8, buckets uint32, entries uint8) store {
	t.Helper()

	st, err := newStore(Config{FingerBits: width, NumBuckets: buckets, NumEntries: entries, MaxSwaps: 1})
	require.NoError(t, err)

	return st
}

// grid renders a store to a string.
func grid(st store) string {
	var sb strings.Builder

	st.writeGrid(&sb)

	return sb.String()
}

// TestTryInsert_FirstEmptySlotOrder verifies slots fill in scan order
// and a full bucket is rejected without side effects.
func TestTryInsert_FirstEmptySlotOrder(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Width8, 1, 3)

	require.True(t, st.tryInsert(0, 7))
	assert.Equal(t, "  0 [   7    0    0 ]", grid(st))

	require.True(t, st.tryInsert(0, 9))
	assert.Equal(t, "  0 [   7    9    0 ]", grid(st))

	require.True(t, st.tryInsert(0, 11))
	assert.Equal(t, "  0 [   7    9   11 ]", grid(st))

	require.False(t, st.tryInsert(0, 13))
	assert.Equal(t, "  0 [   7    9   11 ]", grid(st), "full bucket must stay untouched")
}

// TestSwap_ReturnsPriorOccupant verifies swap overwrites and reports
// the displaced value.
func TestSwap_ReturnsPriorOccupant(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Width16, 2, 2)

	evicted := st.swap(1, 1, 500)
	assert.Equal(t, uint16(0), evicted)

	evicted = st.swap(1, 1, 900)
	assert.Equal(t, uint16(500), evicted)

	assert.Equal(t, "  0 [     0      0 ]\n  1 [     0    900 ]", grid(st))
}

// TestWriteGrid_Empty8Bit verifies the 3-digit cell layout and the
// absence of a trailing newline.
func TestWriteGrid_Empty8Bit(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Width8, 2, 2)

	want := "  0 [   0    0 ]\n  1 [   0    0 ]"
	assert.Equal(t, want, grid(st))
}

// TestWriteGrid_Empty16Bit verifies the 5-digit cell layout.
func TestWriteGrid_Empty16Bit(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Width16, 1, 3)

	want := "  0 [     0      0      0 ]"
	assert.Equal(t, want, grid(st))
}

// TestWriteGrid_MaxFingerprints verifies the widest values still fit
// their columns.
func TestWriteGrid_MaxFingerprints(t *testing.T) {
	t.Parallel()

	st8 := newTestStore(t, Width8, 1, 2)
	st8.swap(0, 0, fingerModulus8)
	assert.Equal(t, "  0 [ 255    0 ]", grid(st8))

	st16 := newTestStore(t, Width16, 1, 2)
	st16.swap(0, 1, fingerModulus16)
	assert.Equal(t, "  0 [     0  65535 ]", grid(st16))
}

// TestFilterString_RendersStoredFingerprint verifies an inserted key's
// derived fingerprint shows up in the facade rendering.
func TestFilterString_RendersStoredFingerprint(t *testing.T) {
	t.Parallel()

	cfg := Config{FingerBits: Width8, NumBuckets: 1, NumEntries: 1, MaxSwaps: 0}

	f, err := NewWithRand(cfg, NewSplitMix64(testSeed))
	require.NoError(t, err)

	const key = "rendered"

	_, err = f.InsertString(key)
	require.NoError(t, err)

	// The single slot now holds the key's derived fingerprint.
	fp := f.slots.derive(hashutil.Sum64String(key))
	require.NotZero(t, fp)

	want := fmt.Sprintf("%3d [ %3d ]", 0, fp)
	assert.Equal(t, want, f.String())
}

// TestSumFingerprint_WidthChangesHash verifies the 8-bit and 16-bit
// partner hashes use different encodings of the same fingerprint value.
func TestSumFingerprint_WidthChangesHash(t *testing.T) {
	t.Parallel()

	st8 := newTestStore(t, Width8, 4, 2)
	st16 := newTestStore(t, Width16, 4, 2)

	const finger = 200

	assert.NotEqual(t, st8.sumFingerprint(finger), st16.sumFingerprint(finger))

	// Same store, same fingerprint: stable.
	assert.Equal(t, st8.sumFingerprint(finger), st8.sumFingerprint(finger))
}
