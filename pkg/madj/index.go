package madj

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icza/bitio"
)

const indexEntrySize = 8

// Field limits imposed by the packed entry layout.
const (
	// MaxFrameSize largest representable frame payload, 2^24-1.
	MaxFrameSize = uint32(1<<24 - 1)
	// MaxDataOffset largest representable payload offset, 2^40-1.
	MaxDataOffset = uint64(1<<40 - 1)
)

// IndexEntry location of a single frame payload.
// Packed as a 24-bit size followed by a 40-bit offset.
type IndexEntry struct {
	Size   uint32
	Offset uint64 // Relative to the track's data base offset.
}

// Marshal entry to 8 bytes.
// Fields above their representable maximum are rejected, never truncated.
func (e IndexEntry) Marshal() ([]byte, error) {
	if e.Size > MaxFrameSize {
		return nil, fmt.Errorf("%w: frame size %d exceeds limit %d",
			ErrInvalidArgument, e.Size, MaxFrameSize)
	}
	if e.Offset > MaxDataOffset {
		return nil, fmt.Errorf("%w: frame offset %d exceeds limit %d",
			ErrInvalidArgument, e.Offset, MaxDataOffset)
	}

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	w.TryWriteBits(uint64(e.Size), 24)
	w.TryWriteBits(e.Offset, 40)
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal entry from 8 bytes.
func (e *IndexEntry) Unmarshal(buf []byte) error {
	if len(buf) < indexEntrySize {
		return fmt.Errorf("%w: index entry", ErrTruncated)
	}
	r := bitio.NewReader(bytes.NewReader(buf[:indexEntrySize]))
	size := r.TryReadBits(24)
	offset := r.TryReadBits(40)
	if r.TryError != nil {
		return r.TryError
	}
	e.Size = uint32(size)
	e.Offset = offset
	return nil
}

// marshalIndex writes all entries of a frame index.
func marshalIndex(w io.Writer, index []IndexEntry) error {
	for i, entry := range index {
		buf, err := entry.Marshal()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// unmarshalIndex reads count entries.
// Allocation grows with the input so a bogus count fails with
// ErrTruncated instead of exhausting memory.
func unmarshalIndex(r io.Reader, count uint64) ([]IndexEntry, error) {
	const maxPrealloc = 1 << 16

	prealloc := count
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}

	buf := make([]byte, indexEntrySize)
	index := make([]IndexEntry, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, truncated(err)
		}
		var entry IndexEntry
		if err := entry.Unmarshal(buf); err != nil {
			return nil, err
		}
		index = append(index, entry)
	}
	return index, nil
}
