// Package playback serves cataloged container files to network clients.
package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"madj/pkg/library"
	"madj/pkg/log"
)

// ErrInvalidConfig invalid server configuration.
var ErrInvalidConfig = errors.New("invalid config")

const diskUsageMaxAge = 10 * time.Minute

// Server streams frames from the library over websockets.
type Server struct {
	library *library.Manager
	auth    *Authenticator // nil disables authentication.
	logger  *log.Logger
}

// NewServer creates a playback server.
func NewServer(lib *library.Manager, auth *Authenticator, logger *log.Logger) *Server {
	return &Server{
		library: lib,
		auth:    auth,
		logger:  logger,
	}
}

// Start listens on address until ctx is canceled.
func (s *Server) Start(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.logger.Info().
		Src("playback").
		Msgf("listener opened on %v", address)

	server := http.Server{Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	go func() {
		err := server.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().
				Src("playback").
				Msgf("server stopped: %v", err)
		}
	}()
	return nil
}

// Handler returns the http handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/streams", s.authenticated(s.handleStreams))
	mux.HandleFunc("/api/disk-usage", s.authenticated(s.handleDiskUsage))
	mux.HandleFunc("/stream/", s.authenticated(s.handleStream))
	return mux
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth != nil && !s.auth.ValidateRequest(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="playback"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// handleStreams lists the catalog.
func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid request method", http.StatusMethodNotAllowed)
		return
	}

	entries, err := s.library.Entries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []library.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.logger.Error().
			Src("playback").
			Msgf("encode stream list: %v", err)
	}
}

// handleDiskUsage reports usage of the library filesystem.
func (s *Server) handleDiskUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid request method", http.StatusMethodNotAllowed)
		return
	}

	usage, err := s.library.DiskUsage(diskUsageMaxAge)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := struct {
		Used    uint64  `json:"used"`
		Total   uint64  `json:"total"`
		Percent float64 `json:"percent"`
	}{usage.Used, usage.Total, usage.Percent}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().
			Src("playback").
			Msgf("encode disk usage: %v", err)
	}
}

// handleStream serves "/stream/<name>" as a websocket frame feed and
// "/stream/<name>.sdp" as a session description.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid request method", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/stream/")
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "invalid stream name", http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(name, ".sdp") {
		s.handleDescribe(w, r, strings.TrimSuffix(name, ".sdp"))
		return
	}
	s.handleSession(w, r, name)
}

func (s *Server) lookupStream(w http.ResponseWriter, name string) (string, bool) {
	_, exists, err := s.library.Entry(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return "", false
	}
	if !exists {
		http.Error(w, fmt.Sprintf("no such stream: %v", name), http.StatusNotFound)
		return "", false
	}
	return s.library.FilePath(name), true
}
