// Package hashutil provides the shared hashing and mixing primitives for
// probabilistic data structures.
//
// Key hashing goes through xxh3, a 64-bit non-cryptographic hash with
// good distribution on short keys. The mixing helper uses the splitmix64
// finalizer by Vigna (2014) which provides full-avalanche mixing across
// all 64 bits.
package hashutil

import "github.com/zeebo/xxh3"

// Splitmix64 finalizer constants (Vigna, 2014).
const (
	// MixShift1 is the first right-shift in the splitmix64 finalizer.
	MixShift1 = 30

	// MixMul1 is the first multiplier in the splitmix64 finalizer.
	MixMul1 = 0xbf58476d1ce4e5b9

	// MixShift2 is the second right-shift in the splitmix64 finalizer.
	MixShift2 = 27

	// MixMul2 is the second multiplier in the splitmix64 finalizer.
	MixMul2 = 0x94d049bb133111eb

	// MixShift3 is the third right-shift in the splitmix64 finalizer.
	MixShift3 = 31
)

// Sum64 computes the 64-bit xxh3 hash of data.
func Sum64(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Sum64String computes the 64-bit xxh3 hash of s without copying it to a
// byte slice. Sum64String(s) == Sum64([]byte(s)) for every s.
func Sum64String(s string) uint64 {
	return xxh3.HashString(s)
}

// Mix64 applies the splitmix64 finalizer for full-avalanche mixing.
// This is a pure output function; it does NOT advance any state.
func Mix64(v uint64) uint64 {
	v ^= v >> MixShift1
	v *= MixMul1
	v ^= v >> MixShift2
	v *= MixMul2
	v ^= v >> MixShift3

	return v
}
