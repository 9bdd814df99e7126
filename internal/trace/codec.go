package trace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

const (
	// formatVersion is the current trace file format version.
	formatVersion = 1

	// headerSize is the byte length of the fixed file header.
	headerSize = 24

	// blockHeaderSize is the byte length of a series block prefix.
	blockHeaderSize = 5

	// uint32ByteSize is the number of bytes in a uint32.
	uint32ByteSize = 4

	// blockRaw marks a series stored without compression.
	blockRaw = 0

	// blockLZ4 marks an LZ4-compressed series.
	blockLZ4 = 1

	// maxTraceAttempts bounds decode-side allocations when reading
	// untrusted headers.
	maxTraceAttempts = 1 << 26
)

// traceMagic identifies trace files.
var traceMagic = [4]byte{'S', 'N', 'T', 'R'}

// Encode writes t to w in the versioned binary format. The swap series is
// stored as-is; the occupancy series is delta-encoded first, which turns the
// monotone counter into near-constant small values that LZ4 collapses.
func Encode(w io.Writer, t *Trace) error {
	if len(t.Swaps) != len(t.Occupancy) {
		return fmt.Errorf("%w: swap and occupancy series lengths differ", ErrCorrupt)
	}

	var hdr [headerSize]byte

	copy(hdr[0:4], traceMagic[:])
	hdr[4] = formatVersion
	hdr[5] = t.FingerBits
	hdr[6] = t.NumEntries
	hdr[7] = t.MaxSwaps
	binary.LittleEndian.PutUint32(hdr[8:12], t.NumBuckets)
	binary.LittleEndian.PutUint64(hdr[12:20], t.Seed)
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(len(t.Swaps)))

	_, err := w.Write(hdr[:])
	if err != nil {
		return fmt.Errorf("write trace header: %w", err)
	}

	err = writeSeries(w, t.Swaps)
	if err != nil {
		return err
	}

	deltas := make([]uint32, len(t.Occupancy))
	copy(deltas, t.Occupancy)
	deltaEncode(deltas)

	return writeSeries(w, deltas)
}

// Decode reads a trace from r, validating magic, version, and block sizes.
func Decode(r io.Reader) (*Trace, error) {
	var hdr [headerSize]byte

	_, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return nil, fmt.Errorf("read trace header: %w", err)
	}

	if !bytes.Equal(hdr[0:4], traceMagic[:]) {
		return nil, ErrBadMagic
	}

	if hdr[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr[4])
	}

	attempts := binary.LittleEndian.Uint32(hdr[20:24])
	if attempts > maxTraceAttempts {
		return nil, fmt.Errorf("%w: attempt count %d", ErrCorrupt, attempts)
	}

	swaps, err := readSeries(r, int(attempts))
	if err != nil {
		return nil, err
	}

	occupancy, err := readSeries(r, int(attempts))
	if err != nil {
		return nil, err
	}

	deltaDecode(occupancy)

	return &Trace{
		FingerBits: hdr[5],
		NumEntries: hdr[6],
		MaxSwaps:   hdr[7],
		NumBuckets: binary.LittleEndian.Uint32(hdr[8:12]),
		Seed:       binary.LittleEndian.Uint64(hdr[12:20]),
		Swaps:      swaps,
		Occupancy:  occupancy,
	}, nil
}

// WriteFile writes the trace to path, creating or truncating the file.
func WriteFile(path string, t *Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer file.Close()

	err = Encode(file, t)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}

	return nil
}

// ReadFile reads a trace from path.
func ReadFile(path string) (*Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer file.Close()

	t, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}

	return t, nil
}

// writeSeries writes one length-prefixed series block.
func writeSeries(w io.Writer, data []uint32) error {
	flag, payload, err := compressSeries(data)
	if err != nil {
		return err
	}

	var pre [blockHeaderSize]byte

	pre[0] = flag
	binary.LittleEndian.PutUint32(pre[1:blockHeaderSize], uint32(len(payload)))

	_, err = w.Write(pre[:])
	if err != nil {
		return fmt.Errorf("write series header: %w", err)
	}

	_, err = w.Write(payload)
	if err != nil {
		return fmt.Errorf("write series payload: %w", err)
	}

	return nil
}

// readSeries reads one length-prefixed series block of count values.
func readSeries(r io.Reader, count int) ([]uint32, error) {
	var pre [blockHeaderSize]byte

	_, err := io.ReadFull(r, pre[:])
	if err != nil {
		return nil, fmt.Errorf("read series header: %w", err)
	}

	compLen := int(binary.LittleEndian.Uint32(pre[1:blockHeaderSize]))
	if compLen > lz4.CompressBlockBound(count*uint32ByteSize) {
		return nil, fmt.Errorf("%w: series block length %d", ErrCorrupt, compLen)
	}

	payload := make([]byte, compLen)

	_, err = io.ReadFull(r, payload)
	if err != nil {
		return nil, fmt.Errorf("read series payload: %w", err)
	}

	return decompressSeries(pre[0], payload, count)
}

// compressSeries LZ4-compresses the little-endian byte form of data.
// Incompressible series are stored raw so encoding never grows a block past
// its byte form.
func compressSeries(data []uint32) (byte, []byte, error) {
	raw := make([]byte, len(data)*uint32ByteSize)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*uint32ByteSize:], v)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("compress series: %w", err)
	}

	if written == 0 || written >= len(raw) {
		return blockRaw, raw, nil
	}

	return blockLZ4, compressed[:written], nil
}

// decompressSeries reverses compressSeries for a block of count values.
func decompressSeries(flag byte, payload []byte, count int) ([]uint32, error) {
	rawLen := count * uint32ByteSize

	var raw []byte

	switch flag {
	case blockRaw:
		if len(payload) != rawLen {
			return nil, fmt.Errorf("%w: raw series length %d, want %d", ErrCorrupt, len(payload), rawLen)
		}

		raw = payload
	case blockLZ4:
		raw = make([]byte, rawLen)

		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}

		if n != rawLen {
			return nil, fmt.Errorf("%w: decompressed length %d, want %d", ErrCorrupt, n, rawLen)
		}
	default:
		return nil, fmt.Errorf("%w: unknown series flag %d", ErrCorrupt, flag)
	}

	result := make([]uint32, count)
	for i := range result {
		result[i] = binary.LittleEndian.Uint32(raw[i*uint32ByteSize:])
	}

	return result, nil
}

// deltaEncode replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. This turns
// non-decreasing sequences into small, repetitive values that compress
// better with LZ4.
func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode performs a prefix-sum to restore original values from deltas
// produced by deltaEncode. The operation is performed in place.
func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
