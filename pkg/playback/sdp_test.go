package playback

import (
	"testing"

	"madj/pkg/madj"

	"github.com/stretchr/testify/require"
)

func TestSessionDescription(t *testing.T) {
	tracks := []madj.TrackInfo{
		{
			CodecKind: madj.CodecVideo,
			CodecID:   1,
			Video:     &madj.VideoInfo{Width: 640, Height: 480},
		},
		{
			CodecKind: madj.CodecAudio,
			CodecID:   2,
			Audio:     &madj.AudioInfo{SampleRate: 44100, ChannelCount: 2},
		},
	}

	buf, err := sessionDescription("test.mjv", tracks).Marshal()
	require.NoError(t, err)

	description := string(buf)
	require.Contains(t, description, "s=test.mjv")
	require.Contains(t, description, "m=video 0 RTP/AVP 96")
	require.Contains(t, description, "a=rtpmap:96 X-MADJ-1/90000")
	require.Contains(t, description, "a=control:trackID=0")
	require.Contains(t, description, "m=audio 0 RTP/AVP 97")
	require.Contains(t, description, "a=rtpmap:97 X-MADJ-2/44100/2")
	require.Contains(t, description, "a=control:trackID=1")
}
