package playback

import (
	"encoding/json"
	"testing"

	"madj/pkg/madj"

	"github.com/stretchr/testify/require"
)

func TestMarshalFrame(t *testing.T) {
	frame := madj.Frame{
		TrackID:  1,
		Index:    2,
		Duration: 3,
		Payload:  []byte{0xaa, 0xbb},
	}

	expected := []byte{
		0, 0, 0, 1, // Track id.
		0, 0, 0, 0, 0, 0, 0, 2, // Presentation index.
		0, 0, 0, 0, 0, 0, 0, 3, // Duration.
		0xaa, 0xbb, // Payload.
	}
	require.Equal(t, expected, marshalFrame(frame))
}

func TestSeekRequest(t *testing.T) {
	t.Run("global", func(t *testing.T) {
		var req seekRequest
		require.NoError(t, json.Unmarshal([]byte(`{"seek":1500000}`), &req))
		require.Equal(t, int64(1500000), req.Seek)
		require.Nil(t, req.Track)
	})

	t.Run("track", func(t *testing.T) {
		var req seekRequest
		require.NoError(t, json.Unmarshal([]byte(`{"seek":2,"track":1}`), &req))
		require.Equal(t, int64(2), req.Seek)
		require.NotNil(t, req.Track)
		require.Equal(t, 1, *req.Track)
	})
}
