package madj

import (
	"errors"
	"fmt"
	"io"
)

// GlobalTimeBase ticks per second of global seek timestamps.
const GlobalTimeBase = 1000000

// Frame one demuxed frame.
type Frame struct {
	TrackID  int
	Index    uint64 // Presentation index within the track.
	Duration uint64 // Subframes covered by this frame.
	Pos      int64  // Absolute file offset of the payload.
	Payload  []byte
}

var errClosed = errors.New("demuxer is closed")

// Demuxer reads frames from a finalized file in presentation order.
// Not safe for concurrent use.
type Demuxer struct {
	in       io.ReadSeeker
	fileSize int64

	header  Header
	cursors []uint64 // Next frame per track.

	closed bool
}

// NewDemuxer decodes the header and all frame indices.
// On any error no partial state is retained.
func NewDemuxer(in io.ReadSeeker) (*Demuxer, error) {
	fileSize, err := in.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var header Header
	if err := header.Unmarshal(in); err != nil {
		return nil, err
	}

	for i := range header.Tracks {
		if err := validateIndex(&header.Tracks[i], fileSize); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}

	return &Demuxer{
		in:       in,
		fileSize: fileSize,
		header:   header,
		cursors:  make([]uint64, len(header.Tracks)),
	}, nil
}

// validateIndex checks that every entry stays inside the file and that
// offsets never decrease in storage order.
func validateIndex(t *TrackInfo, fileSize int64) error {
	// A base offset past the end would let the end calculation below
	// wrap around uint64.
	if t.DataBaseOffset > uint64(fileSize) {
		return fmt.Errorf("%w: data base offset %d, file size is %d",
			ErrInvalidData, t.DataBaseOffset, fileSize)
	}

	var prevOffset uint64
	for i, entry := range t.Index {
		if entry.Offset < prevOffset {
			return fmt.Errorf("%w: offset of frame %d decreases",
				ErrInvalidData, i)
		}
		prevOffset = entry.Offset

		end := t.DataBaseOffset + entry.Offset + uint64(entry.Size)
		if end > uint64(fileSize) {
			return fmt.Errorf("%w: frame %d ends at %d, file size is %d",
				ErrInvalidData, i, end, fileSize)
		}
	}
	return nil
}

// Version returns the file format version.
func (d *Demuxer) Version() uint32 {
	return d.header.Version
}

// Tracks returns the decoded track descriptors.
func (d *Demuxer) Tracks() []TrackInfo {
	return d.header.Tracks
}

// ReadFrame returns the next frame in global presentation order.
//
// Among all tracks with frames left, the one with the smallest next
// presentation time is chosen, ties broken by declaration order. Frames
// are therefore delivered with non-decreasing presentation time across
// tracks. Returns io.EOF once every track is exhausted.
//
// On an I/O error the cursor is not advanced, so the call may be retried.
func (d *Demuxer) ReadFrame() (Frame, error) {
	if d.closed {
		return Frame{}, errClosed
	}

	trackID := -1
	var trackTime float64
	for i := range d.header.Tracks {
		t := &d.header.Tracks[i]
		if d.cursors[i] >= t.FrameCount {
			continue
		}
		ct := t.TimeAt(d.cursors[i])
		if trackID == -1 || trackTime > ct {
			trackID = i
			trackTime = ct
		}
	}
	if trackID == -1 {
		return Frame{}, io.EOF
	}

	track := &d.header.Tracks[trackID]
	cursor := d.cursors[trackID]
	entry := track.Index[cursor]
	pos := int64(track.DataBaseOffset + entry.Offset)

	if _, err := d.in.Seek(pos, io.SeekStart); err != nil {
		return Frame{}, err
	}
	payload := make([]byte, entry.Size)
	if _, err := io.ReadFull(d.in, payload); err != nil {
		return Frame{}, truncated(err)
	}

	d.cursors[trackID]++

	return Frame{
		TrackID:  trackID,
		Index:    cursor,
		Duration: track.SubframesPerFrame,
		Pos:      pos,
		Payload:  payload,
	}, nil
}

// Seek repositions every track to the global timestamp,
// expressed in GlobalTimeBase ticks.
func (d *Demuxer) Seek(timestamp int64) error {
	if d.closed {
		return errClosed
	}
	d.seekSeconds(float64(timestamp) / GlobalTimeBase)
	return nil
}

// SeekTrack repositions every track to the timestamp expressed in the
// given track's timebase. The whole container is resynchronized to the
// same wall-clock position, not just the given track.
func (d *Demuxer) SeekTrack(trackID int, timestamp int64) error {
	if d.closed {
		return errClosed
	}
	if trackID < 0 || trackID >= len(d.header.Tracks) {
		return fmt.Errorf("%w: track %d", ErrInvalidArgument, trackID)
	}

	// The rate/10 bias keeps a frame whose rounded-down time equals the
	// target from being skipped.
	rate := d.header.Tracks[trackID].decodeRate()
	d.seekSeconds(rate*float64(timestamp) + rate/10)
	return nil
}

// seekSeconds recomputes every cursor from a time in seconds. Cursors
// are not clamped to the frame count, a track seeked past its end is
// simply excluded from frame selection.
func (d *Demuxer) seekSeconds(ts float64) {
	for i := range d.header.Tracks {
		t := &d.header.Tracks[i]

		rate := t.decodeRate()
		if rate <= 0 || t.SubframesPerFrame == 0 {
			d.cursors[i] = 0
			continue
		}

		frame := ts / rate / float64(t.SubframesPerFrame)
		if frame < 0 {
			frame = 0
		}
		d.cursors[i] = uint64(frame)
	}
}

// Close releases all track and index state. Idempotent.
func (d *Demuxer) Close() error {
	d.header = Header{}
	d.cursors = nil
	d.closed = true
	return nil
}
