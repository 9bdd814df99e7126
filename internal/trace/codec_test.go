package trace_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/swapnest/internal/trace"
)

// Trace codec test constants.
const (
	traceTestAttempts   = 1000
	traceTestFingerBits = 16
	traceTestBuckets    = 10000
	traceTestEntries    = 100
	traceTestMaxSwaps   = 99
	traceTestSeed       = 0xDEADBEEF
	traceTestFile       = "run.sntr"
)

// buildTestTrace fills a trace the way a bench run would: mostly zero-swap
// successes with a monotone occupancy counter.
func buildTestTrace() *trace.Trace {
	tr := &trace.Trace{
		FingerBits: traceTestFingerBits,
		NumBuckets: traceTestBuckets,
		NumEntries: traceTestEntries,
		MaxSwaps:   traceTestMaxSwaps,
		Seed:       traceTestSeed,
	}

	used := uint64(0)

	for i := range traceTestAttempts {
		swaps := uint8(0)
		if i%100 == 99 {
			swaps = uint8(i % 7)
		}

		used++
		tr.Append(swaps, used)
	}

	return tr
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	original := buildTestTrace()

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, original))

	decoded, err := trace.Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

func TestEncode_CompressesMonotoneSeries(t *testing.T) {
	t.Parallel()

	tr := buildTestTrace()

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, tr))

	// Two near-constant series of 4 KiB each should collapse well below
	// their raw byte form.
	rawSize := 2 * traceTestAttempts * 4
	assert.Less(t, buf.Len(), rawSize/4)
}

func TestEncodeDecode_EmptyTrace(t *testing.T) {
	t.Parallel()

	original := &trace.Trace{FingerBits: traceTestFingerBits, NumBuckets: traceTestBuckets}

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, original))

	decoded, err := trace.Decode(&buf)
	require.NoError(t, err)

	assert.Zero(t, decoded.Len())
	assert.Equal(t, uint8(traceTestFingerBits), decoded.FingerBits)
	assert.Equal(t, uint32(traceTestBuckets), decoded.NumBuckets)
}

func TestEncode_MismatchedSeriesLengths(t *testing.T) {
	t.Parallel()

	tr := &trace.Trace{Swaps: []uint32{1, 2}, Occupancy: []uint32{1}}

	var buf bytes.Buffer

	err := trace.Encode(&buf, tr)
	assert.ErrorIs(t, err, trace.ErrCorrupt)
}

func TestDecode_BadMagic(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{'X'}, 64)

	_, err := trace.Decode(bytes.NewReader(payload))
	assert.ErrorIs(t, err, trace.ErrBadMagic)
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, buildTestTrace()))

	payload := buf.Bytes()
	payload[4] = 0xFF

	_, err := trace.Decode(bytes.NewReader(payload))
	assert.ErrorIs(t, err, trace.ErrUnsupportedVersion)
}

func TestDecode_TruncatedPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, buildTestTrace()))

	payload := buf.Bytes()[:buf.Len()/2]

	_, err := trace.Decode(bytes.NewReader(payload))
	assert.Error(t, err)
}

func TestDecode_OversizedAttemptCount(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, trace.Encode(&buf, buildTestTrace()))

	payload := buf.Bytes()
	// Corrupt the attempt count field with an absurd value.
	payload[20] = 0xFF
	payload[21] = 0xFF
	payload[22] = 0xFF
	payload[23] = 0xFF

	_, err := trace.Decode(bytes.NewReader(payload))
	assert.ErrorIs(t, err, trace.ErrCorrupt)
}

func TestWriteReadFile_RoundTrip(t *testing.T) {
	t.Parallel()

	original := buildTestTrace()
	path := filepath.Join(t.TempDir(), traceTestFile)

	require.NoError(t, trace.WriteFile(path, original))

	decoded, err := trace.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := trace.ReadFile(filepath.Join(t.TempDir(), traceTestFile))
	assert.Error(t, err)
}

func TestAppend_TracksBothSeries(t *testing.T) {
	t.Parallel()

	var tr trace.Trace

	tr.Append(0, 1)
	tr.Append(3, 2)
	tr.Append(traceTestMaxSwaps, 2)

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []uint32{0, 3, traceTestMaxSwaps}, tr.Swaps)
	assert.Equal(t, []uint32{1, 2, 2}, tr.Occupancy)
}
