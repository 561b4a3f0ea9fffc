package madj

import "fmt"

// Rational track timebase. One frame tick lasts Num/Den seconds.
type Rational struct {
	Num uint32
	Den uint32
}

// Seconds returns the duration of one tick in seconds.
func (r Rational) Seconds() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// CodecKind track media kind.
type CodecKind uint32

// Codec kinds.
const (
	CodecVideo CodecKind = 0
	CodecAudio CodecKind = 1
)

func (k CodecKind) String() string {
	switch k {
	case CodecVideo:
		return "video"
	case CodecAudio:
		return "audio"
	}
	return fmt.Sprintf("unknown(%d)", uint32(k))
}

// VideoInfo video codec parameters.
type VideoInfo struct {
	Width         uint32
	Height        uint32
	DisplayWidth  uint32
	DisplayHeight uint32
	PixelFormat   uint32
}

// AudioInfo audio codec parameters.
type AudioInfo struct {
	SampleRate    uint32
	ChannelCount  uint32
	BitsPerSample uint32
}

// TrackInfo describes one elementary stream.
//
// Exactly one of Video and Audio is set, selected by CodecKind.
// Metadata is only populated when reading legacy files.
type TrackInfo struct {
	FrameCount        uint64
	SubframesPerFrame uint64
	DataBaseOffset    uint64
	Rate              Rational
	CodecKind         CodecKind
	CodecID           uint32

	Video *VideoInfo
	Audio *AudioInfo

	Metadata map[string]string

	Index []IndexEntry
}

// decodeRate seconds per frame tick.
func (t *TrackInfo) decodeRate() float64 {
	return t.Rate.Seconds()
}

// TimeAt returns the presentation time of a frame in seconds.
func (t *TrackInfo) TimeAt(frame uint64) float64 {
	return t.decodeRate() * float64(frame) * float64(t.SubframesPerFrame)
}

// Duration returns the total presentation time of the track in seconds.
func (t *TrackInfo) Duration() float64 {
	return t.TimeAt(t.FrameCount)
}

// validateKind rejects codec kinds the format cannot represent.
func (t *TrackInfo) validateKind() error {
	switch t.CodecKind {
	case CodecVideo, CodecAudio:
		return nil
	}
	return fmt.Errorf("%w: codec kind %d", ErrInvalidArgument, t.CodecKind)
}

// headerSize returns the marshaled size of the track descriptor
// including its frame index.
func (t *TrackInfo) headerSize() int {
	size := 8 + 8 + 8 + 4 + 4 // Frame info.
	size += 4 + 4             // Codec kind and id.
	switch t.CodecKind {
	case CodecVideo:
		size += 5 * 4
	case CodecAudio:
		size += 3 * 4
	}
	size += int(t.FrameCount) * indexEntrySize
	return size
}
