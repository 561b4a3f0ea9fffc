package playback

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"madj/pkg/madj"

	psdp "github.com/pion/sdp/v3"
)

// sessionDescription describes a container's tracks.
// Formats and payload types match the RTP packetizer.
func sessionDescription(name string, tracks []madj.TrackInfo) *psdp.SessionDescription {
	description := &psdp.SessionDescription{
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      0,
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "0.0.0.0",
		},
		SessionName: psdp.SessionName(name),
		ConnectionInformation: &psdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &psdp.Address{Address: "0.0.0.0"},
		},
		TimeDescriptions: []psdp.TimeDescription{{}},
	}

	for i, track := range tracks {
		payloadType := rtpPayloadTypeBase + i

		var media string
		clockRate := rtpVideoClockRate
		channels := ""
		switch track.CodecKind {
		case madj.CodecVideo:
			media = "video"
		case madj.CodecAudio:
			media = "audio"
			if track.Audio != nil && track.Audio.SampleRate != 0 {
				clockRate = int(track.Audio.SampleRate)
				channels = fmt.Sprintf("/%d", track.Audio.ChannelCount)
			}
		}

		rtpmap := fmt.Sprintf("%d X-MADJ-%d/%d%s",
			payloadType, track.CodecID, clockRate, channels)

		description.MediaDescriptions = append(description.MediaDescriptions,
			&psdp.MediaDescription{
				MediaName: psdp.MediaName{
					Media:   media,
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{strconv.Itoa(payloadType)},
				},
				Attributes: []psdp.Attribute{
					{Key: "rtpmap", Value: rtpmap},
					{Key: "control", Value: "trackID=" + strconv.Itoa(i)},
				},
			})
	}
	return description
}

// handleDescribe serves the session description of a stream.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request, name string) {
	path, ok := s.lookupStream(w, name)
	if !ok {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer file.Close()

	demuxer, err := madj.NewDemuxer(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer demuxer.Close()

	buf, err := sessionDescription(name, demuxer.Tracks()).Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/sdp")
	w.Write(buf) //nolint:errcheck
}
