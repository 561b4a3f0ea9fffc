package madj

import (
	"fmt"
	"io"
)

type pendingChunk struct {
	offset  uint64 // Relative to the track's data region.
	payload []byte
}

type muxTrack struct {
	info   TrackInfo
	chunks []pendingChunk
	size   uint64 // Running payload size.
}

// Muxer buffers frames per track and writes the whole file on Finalize.
//
// Frame offsets depend on every track's final frame count, so nothing is
// written before Finalize. Not safe for concurrent use.
type Muxer struct {
	out       io.Writer
	tracks    []*muxTrack
	finalized bool
}

// NewMuxer creates a muxer for the given track descriptors.
//
// Rate, SubframesPerFrame, CodecKind, CodecID and the codec parameters
// are taken from each descriptor. FrameCount, DataBaseOffset and Index
// are derived at Finalize and need not be set.
func NewMuxer(out io.Writer, tracks []TrackInfo) (*Muxer, error) {
	m := &Muxer{out: out}
	for i := range tracks {
		info := tracks[i]
		if err := info.validateKind(); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		if info.SubframesPerFrame == 0 {
			info.SubframesPerFrame = 1
		}
		info.FrameCount = 0
		info.DataBaseOffset = 0
		info.Index = nil

		m.tracks = append(m.tracks, &muxTrack{info: info})
	}
	return m, nil
}

// WriteFrame buffers one frame payload for a track. The payload is
// copied. Frames of different tracks may be submitted in any order,
// interleaving is resolved at read time from the track timebases.
func (m *Muxer) WriteFrame(trackID int, payload []byte) error {
	if m.finalized {
		return ErrAlreadyFinalized
	}
	if trackID < 0 || trackID >= len(m.tracks) {
		return fmt.Errorf("%w: track %d", ErrInvalidArgument, trackID)
	}
	if uint64(len(payload)) > uint64(MaxFrameSize) {
		return fmt.Errorf("%w: frame size %d exceeds limit %d",
			ErrInvalidArgument, len(payload), MaxFrameSize)
	}

	track := m.tracks[trackID]
	if track.size > MaxDataOffset {
		return fmt.Errorf("%w: track %d data exceeds offset limit",
			ErrInvalidArgument, trackID)
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	track.chunks = append(track.chunks, pendingChunk{
		offset:  track.size,
		payload: buf,
	})
	track.size += uint64(len(payload))
	return nil
}

// Finalize computes all offsets, builds the frame indices and writes
// header, indices and payload regions. The muxer cannot be used
// afterwards, a second call fails with ErrAlreadyFinalized.
func (m *Muxer) Finalize() error {
	if m.finalized {
		return ErrAlreadyFinalized
	}
	m.finalized = true

	header := Header{
		Version: Version,
		Tracks:  make([]TrackInfo, len(m.tracks)),
	}

	// First pass: frame counts, indices and payload-relative offsets.
	var dataOffset uint64
	for i, track := range m.tracks {
		info := track.info
		info.FrameCount = uint64(len(track.chunks))
		info.DataBaseOffset = dataOffset
		dataOffset += track.size

		info.Index = make([]IndexEntry, len(track.chunks))
		for j, chunk := range track.chunks {
			info.Index[j] = IndexEntry{
				Size:   uint32(len(chunk.payload)),
				Offset: chunk.offset,
			}
		}
		header.Tracks[i] = info
	}

	// Second pass: all indices precede the first payload byte, so every
	// data base offset shifts by the total header size.
	headerSize := uint64(header.Size())
	for i := range header.Tracks {
		header.Tracks[i].DataBaseOffset += headerSize
	}

	if err := header.Marshal(m.out); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, track := range m.tracks {
		for _, chunk := range track.chunks {
			if _, err := m.out.Write(chunk.payload); err != nil {
				return fmt.Errorf("write track %d data: %w", i, err)
			}
		}
		track.chunks = nil
	}
	return nil
}
