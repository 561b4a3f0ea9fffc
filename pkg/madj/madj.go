package madj

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MagicTag identifies a MADJ file. Spells "MADJ".
const MagicTag = uint32(0x4D41444A)

// Format versions.
const (
	// VersionLegacy files store codec parameters in a string dictionary.
	VersionLegacy = 1
	// Version is the revision written by the muxer.
	Version = 2
)

// Errors.
var (
	// ErrInvalidFormat the input does not start with the magic tag.
	ErrInvalidFormat = errors.New("not a madj file")

	// ErrUnsupportedVersion the file requires a newer implementation.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrTruncated the input ended before a complete structure was read.
	ErrTruncated = errors.New("truncated input")

	// ErrInvalidData the file is recognized but malformed.
	ErrInvalidData = errors.New("invalid data")

	// ErrInvalidArgument out of range track id, codec kind or field value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyFinalized the muxer has already written its output.
	ErrAlreadyFinalized = errors.New("already finalized")
)

// Probe reports whether buf looks like the start of a MADJ file.
// Only the first four bytes are inspected.
func Probe(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	return binary.BigEndian.Uint32(buf[:4]) == MagicTag
}

// truncated maps short-read errors to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
