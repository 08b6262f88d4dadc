package cache

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/rshade/empsearch/internal/resultset"
)

// zstdMagic is the frame header of a zstd payload. Plain entries are JSON arrays and start
// with '[', so the two formats never collide.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxDecodedEntrySize bounds decompression of a single entry.
const maxDecodedEntrySize = 256 << 20

// ErrCorruptEntry is returned when a stored entry cannot be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// LookupStatus is the outcome of reading an entry.
type LookupStatus int

const (
	// LookupMiss means no entry exists for the key.
	LookupMiss LookupStatus = iota
	// LookupHit means the entry was read and decoded.
	LookupHit
	// LookupCorrupt means an entry exists but could not be read or decoded.
	LookupCorrupt
)

// String returns the status name used in logs.
func (s LookupStatus) String() string {
	switch s {
	case LookupHit:
		return "hit"
	case LookupCorrupt:
		return "corrupt"
	default:
		return "miss"
	}
}

// LookupResult is what a cache read produced. Rows is set only on a hit; Err only when
// the entry is corrupt.
type LookupResult struct {
	Key    string
	Status LookupStatus
	Rows   []resultset.Row
	Err    error
}

// encodeEntry serializes rows, optionally compressing the payload with zstd.
func encodeEntry(rows []resultset.Row, compress bool) ([]byte, error) {
	data, err := resultset.Encode(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	if !compress {
		return data, nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// decodeEntry parses an entry written by encodeEntry, compressed or not.
func decodeEntry(data []byte) ([]resultset.Row, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedEntrySize),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
		}
	}

	rows, err := resultset.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}
	return rows, nil
}
