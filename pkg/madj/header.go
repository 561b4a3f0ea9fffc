package madj

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// prologueSize magic + version + track count.
const prologueSize = 4 + 4 + 4

// Header file header, including every track's frame index.
type Header struct {
	Version uint32
	Tracks  []TrackInfo
}

// Size marshaled size in bytes.
func (h *Header) Size() int {
	size := prologueSize
	for i := range h.Tracks {
		size += h.Tracks[i].headerSize()
	}
	return size
}

// Marshal header. Only the current revision can be written.
func (h *Header) Marshal(w io.Writer) error {
	if h.Version != Version {
		return fmt.Errorf("%w: cannot write version %d",
			ErrInvalidArgument, h.Version)
	}

	if err := writeUint32(w, MagicTag); err != nil {
		return err
	}
	if err := writeUint32(w, h.Version); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(h.Tracks))); err != nil {
		return err
	}

	for i := range h.Tracks {
		if err := h.Tracks[i].marshal(w); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	return nil
}

func (t *TrackInfo) marshal(w io.Writer) error {
	if err := t.validateKind(); err != nil {
		return err
	}
	if uint64(len(t.Index)) != t.FrameCount {
		return fmt.Errorf("%w: index has %d entries, frame count is %d",
			ErrInvalidArgument, len(t.Index), t.FrameCount)
	}

	fields := []uint64{t.FrameCount, t.SubframesPerFrame, t.DataBaseOffset}
	for _, v := range fields {
		if err := writeUint64(w, v); err != nil {
			return err
		}
	}
	if err := writeUint32(w, t.Rate.Num); err != nil {
		return err
	}
	if err := writeUint32(w, t.Rate.Den); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(t.CodecKind)); err != nil {
		return err
	}
	if err := writeUint32(w, t.CodecID); err != nil {
		return err
	}

	var params []uint32
	switch t.CodecKind {
	case CodecVideo:
		v := t.Video
		if v == nil {
			v = &VideoInfo{}
		}
		params = []uint32{
			v.Width, v.Height,
			v.DisplayWidth, v.DisplayHeight,
			v.PixelFormat,
		}
	case CodecAudio:
		a := t.Audio
		if a == nil {
			a = &AudioInfo{}
		}
		params = []uint32{a.SampleRate, a.ChannelCount, a.BitsPerSample}
	}
	for _, v := range params {
		if err := writeUint32(w, v); err != nil {
			return err
		}
	}

	return marshalIndex(w, t.Index)
}

// Unmarshal header from reader.
func (h *Header) Unmarshal(r io.Reader) error {
	magic, err := readUint32(r)
	if err != nil {
		return err
	}
	if magic != MagicTag {
		return fmt.Errorf("%w: magic 0x%08X", ErrInvalidFormat, magic)
	}

	h.Version, err = readUint32(r)
	if err != nil {
		return err
	}
	if h.Version > Version {
		return fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}

	trackCount, err := readUint32(r)
	if err != nil {
		return err
	}

	// Allocation grows with the input so a bogus track count fails with
	// ErrTruncated instead of exhausting memory.
	const maxPrealloc = 1 << 10

	prealloc := trackCount
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}

	h.Tracks = make([]TrackInfo, 0, prealloc)
	for i := uint32(0); i < trackCount; i++ {
		var track TrackInfo
		if err := track.unmarshal(r, h.Version); err != nil {
			h.Tracks = nil
			return fmt.Errorf("track %d: %w", i, err)
		}
		h.Tracks = append(h.Tracks, track)
	}
	return nil
}

func (t *TrackInfo) unmarshal(r io.Reader, version uint32) error {
	var err error
	if t.FrameCount, err = readUint64(r); err != nil {
		return err
	}
	if t.SubframesPerFrame, err = readUint64(r); err != nil {
		return err
	}
	if t.DataBaseOffset, err = readUint64(r); err != nil {
		return err
	}
	if t.Rate.Num, err = readUint32(r); err != nil {
		return err
	}
	if t.Rate.Den, err = readUint32(r); err != nil {
		return err
	}

	kind, err := readUint32(r)
	if err != nil {
		return err
	}
	t.CodecKind = CodecKind(kind)
	if t.CodecID, err = readUint32(r); err != nil {
		return err
	}

	if version >= Version {
		err = t.unmarshalCodecParams(r)
	} else {
		err = t.unmarshalLegacyParams(r)
	}
	if err != nil {
		return err
	}

	t.Index, err = unmarshalIndex(r, t.FrameCount)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

func (t *TrackInfo) unmarshalCodecParams(r io.Reader) error {
	switch t.CodecKind {
	case CodecVideo:
		v := &VideoInfo{}
		fields := []*uint32{
			&v.Width, &v.Height,
			&v.DisplayWidth, &v.DisplayHeight,
			&v.PixelFormat,
		}
		for _, f := range fields {
			var err error
			if *f, err = readUint32(r); err != nil {
				return err
			}
		}
		t.Video = v
		return nil

	case CodecAudio:
		a := &AudioInfo{}
		fields := []*uint32{&a.SampleRate, &a.ChannelCount, &a.BitsPerSample}
		for _, f := range fields {
			var err error
			if *f, err = readUint32(r); err != nil {
				return err
			}
		}
		t.Audio = a
		return nil
	}
	return fmt.Errorf("%w: codec kind %d", ErrInvalidData, t.CodecKind)
}

// unmarshalLegacyParams reads the version 1 string parameter dictionary
// and derives the codec parameters from its well known keys.
func (t *TrackInfo) unmarshalLegacyParams(r io.Reader) error {
	paramCount, err := readUint32(r)
	if err != nil {
		return err
	}

	t.Metadata = make(map[string]string, paramCount)
	for i := uint32(0); i < paramCount; i++ {
		key, err := readString(r)
		if err != nil {
			return err
		}
		value, err := readString(r)
		if err != nil {
			return err
		}
		t.Metadata[key] = value
	}

	switch t.CodecKind {
	case CodecVideo:
		t.Video = &VideoInfo{
			Width:         metaUint32(t.Metadata, "frame_width"),
			Height:        metaUint32(t.Metadata, "frame_height"),
			DisplayWidth:  metaUint32(t.Metadata, "display_width"),
			DisplayHeight: metaUint32(t.Metadata, "display_height"),
		}
	case CodecAudio:
		t.Audio = &AudioInfo{
			SampleRate:    metaUint32(t.Metadata, "sample_rate"),
			ChannelCount:  metaUint32(t.Metadata, "channels"),
			BitsPerSample: metaUint32(t.Metadata, "bit_depth"),
		}
	default:
		return fmt.Errorf("%w: codec kind %d", ErrInvalidData, t.CodecKind)
	}
	return nil
}

func metaUint32(m map[string]string, key string) uint32 {
	v, err := strconv.ParseUint(m[key], 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func readString(r io.Reader) (string, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", truncated(err)
	}
	size := binary.BigEndian.Uint16(buf[:])

	str := make([]byte, size)
	if _, err := io.ReadFull(r, str); err != nil {
		return "", truncated(err)
	}
	return string(str), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
