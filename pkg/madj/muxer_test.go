package madj

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMuxer(t *testing.T) {
	buf := &bytes.Buffer{}
	m, err := NewMuxer(buf, []TrackInfo{{
		Rate:      Rational{Num: 1, Den: 1},
		CodecKind: CodecVideo,
		CodecID:   7,
		Video: &VideoInfo{
			Width:         2,
			Height:        2,
			DisplayWidth:  2,
			DisplayHeight: 2,
			PixelFormat:   1,
		},
	}})
	require.NoError(t, err)

	require.NoError(t, m.WriteFrame(0, []byte{0xaa}))
	require.NoError(t, m.WriteFrame(0, []byte{0xbb, 0xcc}))
	require.NoError(t, m.Finalize())

	expected := []byte{
		'M', 'A', 'D', 'J', // Magic.
		0, 0, 0, 2, // Version.
		0, 0, 0, 1, // Track count.

		0, 0, 0, 0, 0, 0, 0, 2, // Frame count.
		0, 0, 0, 0, 0, 0, 0, 1, // Subframes per frame.
		0, 0, 0, 0, 0, 0, 0, 0x58, // Data base offset.
		0, 0, 0, 1, // Rate num.
		0, 0, 0, 1, // Rate den.
		0, 0, 0, 0, // Codec kind.
		0, 0, 0, 7, // Codec id.
		0, 0, 0, 2, // Width.
		0, 0, 0, 2, // Height.
		0, 0, 0, 2, // Display width.
		0, 0, 0, 2, // Display height.
		0, 0, 0, 1, // Pixel format.
		0, 0, 1, 0, 0, 0, 0, 0, // Index entry 1.
		0, 0, 2, 0, 0, 0, 0, 1, // Index entry 2.

		0xaa, 0xbb, 0xcc, // Payload.
	}
	require.Equal(t, expected, buf.Bytes())
}

func TestMuxerRoundTrip(t *testing.T) {
	submitted := [][][]byte{
		{{0xa0}, {0xa1, 0xa1}, {0xa2, 0xa2, 0xa2}},
		{{0xb0}, {0xb1}},
	}

	buf := &bytes.Buffer{}
	m, err := NewMuxer(buf, []TrackInfo{
		{
			Rate:      Rational{Num: 1, Den: 30},
			CodecKind: CodecVideo,
			CodecID:   1,
			Video:     &VideoInfo{Width: 640, Height: 480},
		},
		{
			Rate:              Rational{Num: 1, Den: 8000},
			SubframesPerFrame: 1024,
			CodecKind:         CodecAudio,
			CodecID:           2,
			Audio:             &AudioInfo{SampleRate: 8000, ChannelCount: 1},
		},
	})
	require.NoError(t, err)

	// Interleaved submission order across tracks is irrelevant.
	require.NoError(t, m.WriteFrame(1, submitted[1][0]))
	require.NoError(t, m.WriteFrame(0, submitted[0][0]))
	require.NoError(t, m.WriteFrame(0, submitted[0][1]))
	require.NoError(t, m.WriteFrame(1, submitted[1][1]))
	require.NoError(t, m.WriteFrame(0, submitted[0][2]))
	require.NoError(t, m.Finalize())

	d, err := NewDemuxer(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer d.Close()

	tracks := d.Tracks()
	require.Len(t, tracks, 2)
	require.Equal(t, uint64(3), tracks[0].FrameCount)
	require.Equal(t, uint64(2), tracks[1].FrameCount)

	received := make([][][]byte, 2)
	for {
		frame, err := d.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		received[frame.TrackID] = append(received[frame.TrackID], frame.Payload)
	}
	require.Equal(t, submitted, received)
}

func TestMuxerErrors(t *testing.T) {
	t.Run("badCodecKind", func(t *testing.T) {
		_, err := NewMuxer(&bytes.Buffer{}, []TrackInfo{{
			Rate:      Rational{Num: 1, Den: 1},
			CodecKind: CodecKind(3),
		}})
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("badTrackID", func(t *testing.T) {
		m, err := NewMuxer(&bytes.Buffer{}, []TrackInfo{{CodecKind: CodecVideo}})
		require.NoError(t, err)

		require.ErrorIs(t, m.WriteFrame(1, nil), ErrInvalidArgument)
		require.ErrorIs(t, m.WriteFrame(-1, nil), ErrInvalidArgument)
	})

	t.Run("frameTooLarge", func(t *testing.T) {
		m, err := NewMuxer(&bytes.Buffer{}, []TrackInfo{{CodecKind: CodecVideo}})
		require.NoError(t, err)

		payload := make([]byte, int(MaxFrameSize)+1)
		require.ErrorIs(t, m.WriteFrame(0, payload), ErrInvalidArgument)
	})

	t.Run("doubleFinalize", func(t *testing.T) {
		buf := &bytes.Buffer{}
		m, err := NewMuxer(buf, []TrackInfo{{CodecKind: CodecVideo}})
		require.NoError(t, err)

		require.NoError(t, m.Finalize())
		written := buf.Len()

		require.ErrorIs(t, m.Finalize(), ErrAlreadyFinalized)
		require.Equal(t, written, buf.Len())
	})

	t.Run("writeAfterFinalize", func(t *testing.T) {
		m, err := NewMuxer(&bytes.Buffer{}, []TrackInfo{{CodecKind: CodecVideo}})
		require.NoError(t, err)

		require.NoError(t, m.Finalize())
		require.ErrorIs(t, m.WriteFrame(0, []byte{1}), ErrAlreadyFinalized)
	})
}
