package cuckoo

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/probelab/swapnest/pkg/alg/internal/hashutil"
)

// Source supplies uniform random draws for relocation decisions.
// *rand.Rand from math/rand/v2 satisfies it; SplitMix64 is the
// package-native seedable implementation.
type Source interface {
	// IntN returns a uniform pseudo-random int in [0, n). n must be positive.
	IntN(n int) int
}

// SplitMix64 is a seedable splitmix64 stream. It avoids math/rand which
// triggers gosec G404, and a fixed seed replays the exact draw sequence,
// which makes insertion paths reproducible.
type SplitMix64 struct {
	state uint64
}

// splitmixIncrement is the golden-ratio-derived state advance of splitmix64.
const splitmixIncrement = 0x9e3779b97f4a7c15

// NewSplitMix64 returns a stream that yields the same draw sequence for
// the same seed.
func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Uint64 returns the next pseudo-random value of the stream.
func (s *SplitMix64) Uint64() uint64 {
	s.state += splitmixIncrement

	return hashutil.Mix64(s.state)
}

// IntN returns a pseudo-random int in [0, n).
func (s *SplitMix64) IntN(n int) int {
	return int(s.Uint64()>>1) % n
}

// fallbackSeed keeps New usable when the entropy read fails.
const fallbackSeed = 0x2545_F491_4F6C_DD1D

// seedBytes is the number of entropy bytes drawn for a seed.
const seedBytes = 8

// RandomSeed draws a process-level seed from the operating system,
// falling back to a fixed seed if the entropy read fails. Callers that need
// reproducible runs should record the value and replay it through
// [NewSplitMix64].
func RandomSeed() uint64 {
	var buf [seedBytes]byte

	_, err := rand.Read(buf[:])
	if err != nil {
		return fallbackSeed
	}

	return binary.LittleEndian.Uint64(buf[:])
}
