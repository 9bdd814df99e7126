package experiment_test

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/swapnest/internal/experiment"
	"github.com/probelab/swapnest/pkg/alg/cuckoo"
)

// Workload test constants.
const (
	workloadTestCount = 200
	workloadTestSeed  = 0xC0FFEE
	workloadAltSeed   = 0xBADF00D
)

// wordPattern matches the "XXXX_i" key shape.
var wordPattern = regexp.MustCompile(`^[A-Za-z0-9]{4}_[0-9]+$`)

func TestWords_Shape(t *testing.T) {
	t.Parallel()

	words := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))
	require.Len(t, words, workloadTestCount)

	for i, word := range words {
		assert.Regexp(t, wordPattern, word)

		_, suffix, found := strings.Cut(word, "_")
		require.True(t, found)
		assert.Equal(t, strconv.Itoa(i), suffix)
	}
}

func TestWords_Distinct(t *testing.T) {
	t.Parallel()

	words := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))

	seen := make(map[string]bool, len(words))
	for _, word := range words {
		seen[word] = true
	}

	assert.Len(t, seen, workloadTestCount)
}

func TestWords_Deterministic(t *testing.T) {
	t.Parallel()

	first := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))
	second := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))
	assert.Equal(t, first, second)

	other := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadAltSeed))
	assert.NotEqual(t, first, other)
}

func TestWords_ZeroCount(t *testing.T) {
	t.Parallel()

	assert.Empty(t, experiment.Words(0, cuckoo.NewSplitMix64(workloadTestSeed)))
}

func TestShuffle_PreservesMultiset(t *testing.T) {
	t.Parallel()

	words := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))

	original := make([]string, len(words))
	copy(original, words)

	experiment.Shuffle(words, cuckoo.NewSplitMix64(workloadAltSeed))

	assert.NotEqual(t, original, words)

	sort.Strings(original)
	sort.Strings(words)
	assert.Equal(t, original, words)
}

func TestShuffle_Deterministic(t *testing.T) {
	t.Parallel()

	first := experiment.Words(workloadTestCount, cuckoo.NewSplitMix64(workloadTestSeed))
	second := make([]string, len(first))
	copy(second, first)

	experiment.Shuffle(first, cuckoo.NewSplitMix64(workloadTestSeed))
	experiment.Shuffle(second, cuckoo.NewSplitMix64(workloadTestSeed))

	assert.Equal(t, first, second)
}

func TestShuffle_TinySlices(t *testing.T) {
	t.Parallel()

	var empty []string

	experiment.Shuffle(empty, cuckoo.NewSplitMix64(workloadTestSeed))
	assert.Empty(t, empty)

	single := []string{"only"}
	experiment.Shuffle(single, cuckoo.NewSplitMix64(workloadTestSeed))
	assert.Equal(t, []string{"only"}, single)
}
