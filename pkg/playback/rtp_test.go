package playback

import (
	"testing"

	"madj/pkg/madj"

	"github.com/stretchr/testify/require"
)

func TestRTPPacketizer(t *testing.T) {
	t.Run("video", func(t *testing.T) {
		track := madj.TrackInfo{
			SubframesPerFrame: 1,
			Rate:              madj.Rational{Num: 1, Den: 2},
			CodecKind:         madj.CodecVideo,
		}
		p := NewRTPPacketizer(0, track)

		packet := p.Packetize(madj.Frame{Index: 1, Payload: []byte{0xaa}})
		require.Equal(t, uint8(2), packet.Version)
		require.True(t, packet.Marker)
		require.Equal(t, uint8(96), packet.PayloadType)
		require.Equal(t, uint32(0x4D414400), packet.SSRC)
		require.Equal(t, uint16(0), packet.SequenceNumber)
		// 0.5 seconds at the 90kHz video clock.
		require.Equal(t, uint32(45000), packet.Timestamp)
		require.Equal(t, []byte{0xaa}, packet.Payload)

		packet = p.Packetize(madj.Frame{Index: 2, Payload: []byte{0xbb}})
		require.Equal(t, uint16(1), packet.SequenceNumber)
		require.Equal(t, uint32(90000), packet.Timestamp)
	})

	t.Run("audio", func(t *testing.T) {
		track := madj.TrackInfo{
			SubframesPerFrame: 1,
			Rate:              madj.Rational{Num: 1, Den: 8000},
			CodecKind:         madj.CodecAudio,
			Audio:             &madj.AudioInfo{SampleRate: 8000, ChannelCount: 1},
		}
		p := NewRTPPacketizer(1, track)

		packet := p.Packetize(madj.Frame{Index: 8000, Payload: []byte{0xcc}})
		require.Equal(t, uint8(97), packet.PayloadType)
		require.Equal(t, uint32(0x4D414401), packet.SSRC)
		// One second at the 8kHz sample clock.
		require.Equal(t, uint32(8000), packet.Timestamp)
	})
}
