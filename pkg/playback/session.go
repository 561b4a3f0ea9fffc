package playback

import (
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"madj/pkg/madj"

	"github.com/gorilla/websocket"
)

// frameHeaderSize trackID + presentation index + duration.
const frameHeaderSize = 4 + 8 + 8

// marshalFrame encodes a frame as a websocket binary message.
func marshalFrame(frame madj.Frame) []byte {
	out := make([]byte, frameHeaderSize+len(frame.Payload))
	binary.BigEndian.PutUint32(out[0:4], uint32(frame.TrackID))
	binary.BigEndian.PutUint64(out[4:12], frame.Index)
	binary.BigEndian.PutUint64(out[12:20], frame.Duration)
	copy(out[frameHeaderSize:], frame.Payload)
	return out
}

// seekRequest client control message.
//
// {"seek": <global timestamp in microseconds>} or
// {"seek": <track timestamp>, "track": <id>}.
type seekRequest struct {
	Seek  int64 `json:"seek"`
	Track *int  `json:"track"`
}

// handleSession streams frames in presentation order.
//
// Frames are paced against the wall clock. The "rate" query parameter
// scales playback speed, 0 disables pacing. With "format=rtp" each
// message is a marshaled RTP packet instead of the native framing.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, name string) {
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

	rate := 1.0
	if rawRate := r.URL.Query().Get("rate"); rawRate != "" {
		rate, err = strconv.ParseFloat(rawRate, 64)
		if err != nil || rate < 0 {
			http.Error(w, "invalid rate", http.StatusBadRequest)
			return
		}
	}

	var packetizers []*RTPPacketizer
	if r.URL.Query().Get("format") == "rtp" {
		for i, track := range demuxer.Tracks() {
			packetizers = append(packetizers, NewRTPPacketizer(i, track))
		}
	}

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	seeks := make(chan seekRequest)
	go readControlMessages(conn, seeks)

	session := &session{
		conn:        conn,
		demuxer:     demuxer,
		packetizers: packetizers,
		rate:        rate,
		seeks:       seeks,
	}
	if err := session.run(); err != nil {
		s.logger.Debug().
			Src("playback").
			Msgf("session %v: %v", name, err)
	}
}

// readControlMessages forwards client seek requests until the
// connection dies.
func readControlMessages(conn *websocket.Conn, seeks chan<- seekRequest) {
	defer close(seeks)
	for {
		var req seekRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		seeks <- req
	}
}

type session struct {
	conn        *websocket.Conn
	demuxer     *madj.Demuxer
	packetizers []*RTPPacketizer
	rate        float64
	seeks       chan seekRequest

	start     time.Time
	timeShift float64 // Presentation time when the pacing clock started.
	resync    bool
}

func (s *session) run() error {
	s.start = time.Now()

	for {
		// Apply pending seeks first.
		select {
		case req, ok := <-s.seeks:
			if !ok {
				return nil
			}
			if err := s.applySeek(req); err != nil {
				return err
			}
			continue
		default:
		}

		frame, err := s.demuxer.ReadFrame()
		if errors.Is(err, io.EOF) {
			message := websocket.FormatCloseMessage(
				websocket.CloseNormalClosure, "end of stream")
			return s.conn.WriteMessage(websocket.CloseMessage, message)
		}
		if err != nil {
			return err
		}

		skip, err := s.pace(frame)
		if errors.Is(err, errSessionClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		if err := s.send(frame); err != nil {
			return err
		}
	}
}

func (s *session) applySeek(req seekRequest) error {
	if req.Track != nil {
		if err := s.demuxer.SeekTrack(*req.Track, req.Seek); err != nil {
			return err
		}
	} else if err := s.demuxer.Seek(req.Seek); err != nil {
		return err
	}

	// The pacing clock restarts at the next frame's time.
	s.resync = true
	return nil
}

// pace sleeps until the frame is due. A seek arriving during the sleep
// aborts the frame, it reports skip=true and the frame is not sent.
func (s *session) pace(frame madj.Frame) (bool, error) {
	if s.rate <= 0 {
		return false, nil
	}

	frameTime := s.demuxer.Tracks()[frame.TrackID].TimeAt(frame.Index)
	if s.resync {
		s.resync = false
		s.start = time.Now()
		s.timeShift = frameTime
	}

	elapsed := (frameTime - s.timeShift) / s.rate
	due := s.start.Add(time.Duration(elapsed * float64(time.Second)))
	wait := time.Until(due)
	if wait <= 0 {
		return false, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return false, nil
	case req, ok := <-s.seeks:
		if !ok {
			return true, errSessionClosed
		}
		return true, s.applySeek(req)
	}
}

var errSessionClosed = errors.New("session closed")

func (s *session) send(frame madj.Frame) error {
	if s.packetizers != nil {
		packet := s.packetizers[frame.TrackID].Packetize(frame)
		buf, err := packet.Marshal()
		if err != nil {
			return err
		}
		return s.conn.WriteMessage(websocket.BinaryMessage, buf)
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, marshalFrame(frame))
}
