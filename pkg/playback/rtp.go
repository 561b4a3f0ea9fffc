package playback

import (
	"madj/pkg/madj"

	"github.com/pion/rtp/v2"
)

const (
	// rtpVideoClockRate RTP convention for video streams.
	rtpVideoClockRate = 90000

	// rtpPayloadTypeBase first dynamic payload type.
	rtpPayloadTypeBase = 96
)

// RTPPacketizer turns one track's frames into RTP packets.
type RTPPacketizer struct {
	track     madj.TrackInfo
	clockRate float64

	payloadType    uint8
	ssrc           uint32
	sequenceNumber uint16
}

// NewRTPPacketizer creates a packetizer for a track. Each track gets a
// dynamic payload type and its own SSRC derived from the track id.
func NewRTPPacketizer(trackID int, track madj.TrackInfo) *RTPPacketizer {
	clockRate := float64(rtpVideoClockRate)
	if track.CodecKind == madj.CodecAudio &&
		track.Audio != nil && track.Audio.SampleRate != 0 {
		clockRate = float64(track.Audio.SampleRate)
	}

	return &RTPPacketizer{
		track:       track,
		clockRate:   clockRate,
		payloadType: uint8(rtpPayloadTypeBase + trackID),
		ssrc:        uint32(0x4D414400) + uint32(trackID),
	}
}

// Packetize wraps a frame payload. Timestamps are the frame's
// presentation time in clock rate units.
func (p *RTPPacketizer) Packetize(frame madj.Frame) *rtp.Packet {
	timestamp := uint32(p.track.TimeAt(frame.Index) * p.clockRate)

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         true,
			PayloadType:    p.payloadType,
			SequenceNumber: p.sequenceNumber,
			Timestamp:      timestamp,
			SSRC:           p.ssrc,
		},
		Payload: frame.Payload,
	}
	p.sequenceNumber++
	return packet
}
