package cuckoo

import (
	mathrand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Compile-time interface checks.
var (
	_ Source = (*SplitMix64)(nil)
	_ Source = (*mathrand.Rand)(nil)
)

const (
	randTestSeed  = 12345
	randTestDraws = 1000
	randTestBound = 7
)

// TestSplitMix64_Reproducible verifies identical seeds produce
// identical streams.
func TestSplitMix64_Reproducible(t *testing.T) {
	t.Parallel()

	a := NewSplitMix64(randTestSeed)
	b := NewSplitMix64(randTestSeed)

	for i := range randTestDraws {
		assert.Equal(t, a.Uint64(), b.Uint64(), "diverged at draw %d", i)
	}
}

// TestSplitMix64_SeedChangesStream verifies different seeds diverge.
func TestSplitMix64_SeedChangesStream(t *testing.T) {
	t.Parallel()

	a := NewSplitMix64(randTestSeed)
	b := NewSplitMix64(randTestSeed + 1)

	diverged := false

	for range randTestDraws {
		if a.Uint64() != b.Uint64() {
			diverged = true

			break
		}
	}

	assert.True(t, diverged, "adjacent seeds produced identical streams")
}

// TestSplitMix64_IntNRange verifies draws stay in [0, n).
func TestSplitMix64_IntNRange(t *testing.T) {
	t.Parallel()

	src := NewSplitMix64(randTestSeed)

	for range randTestDraws {
		v := src.IntN(randTestBound)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, randTestBound)
	}
}

// TestSplitMix64_IntNCoversRange verifies every residue shows up over a
// long run.
func TestSplitMix64_IntNCoversRange(t *testing.T) {
	t.Parallel()

	src := NewSplitMix64(randTestSeed)
	seen := make(map[int]bool, randTestBound)

	for range randTestDraws {
		seen[src.IntN(randTestBound)] = true
	}

	assert.Len(t, seen, randTestBound)
}

// TestRandomSeed_UsableByNew verifies the default source path
// constructs a working filter.
func TestRandomSeed_UsableByNew(t *testing.T) {
	t.Parallel()

	f, err := New(Config{FingerBits: Width16, NumBuckets: testBucketsSmall, NumEntries: testEntriesSmall, MaxSwaps: 1})
	assert.NoError(t, err)

	_, err = f.Insert([]byte("seeded"))
	assert.NoError(t, err)
}
