// Package experiment drives bench runs of the cuckoo filter: it generates
// workloads, feeds them through a filter, aggregates per-attempt outcomes,
// and renders reports.
package experiment

import (
	"strconv"

	"github.com/probelab/swapnest/pkg/alg/cuckoo"
)

// wordAlphabet is the candidate set for random key prefixes.
const wordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// wordPrefixLen is the number of random characters prefixed to each key.
const wordPrefixLen = 4

// Words generates count keys of the form "XXXX_i": a random alphanumeric
// prefix joined to the key's index. The index suffix keeps keys distinct
// even when prefixes collide.
func Words(count int, rng cuckoo.Source) []string {
	words := make([]string, 0, count)
	buf := make([]byte, 0, wordPrefixLen+1+len(strconv.Itoa(count)))

	for i := range count {
		buf = buf[:0]

		for range wordPrefixLen {
			buf = append(buf, wordAlphabet[rng.IntN(len(wordAlphabet))])
		}

		buf = append(buf, '_')
		buf = strconv.AppendInt(buf, int64(i), 10)

		words = append(words, string(buf))
	}

	return words
}

// Shuffle permutes keys in place with a Fisher-Yates pass.
func Shuffle(keys []string, rng cuckoo.Source) {
	for i := len(keys) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		keys[i], keys[j] = keys[j], keys[i]
	}
}
