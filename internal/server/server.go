// Package server provides the HTTP server for the treescope daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grovetools/treescope/internal/watch"
	"github.com/grovetools/treescope/pkg/models"
)

// RunningConfig describes the active daemon settings, exposed via
// /api/config so clients can verify what is being watched.
type RunningConfig struct {
	Root       string        `json:"root"`
	Debounce   time.Duration `json:"debounce"`
	StartedAt  time.Time     `json:"started_at"`
	ListenAddr string        `json:"listen_addr"`
}

// Server manages the daemon's HTTP server over a unix socket or TCP.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	service       *watch.Service
	runningConfig *RunningConfig
	upgrader      websocket.Upgrader
}

// New creates a new Server instance around a watch service.
func New(service *watch.Service, logger *logrus.Entry) *Server {
	return &Server{
		logger:  logger,
		service: service,
		upgrader: websocket.Upgrader{
			// The daemon listens on a local socket; origin checks
			// would only reject the TUI client.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// ListenAndServe starts the daemon on the given listen spec:
// "unix:<path>" or "tcp:<addr>". A bare value is treated as a unix
// socket path. It blocks until the server stops or fails.
func (s *Server) ListenAndServe(listen string) error {
	network, addr := ParseListen(listen)

	var listener net.Listener
	var err error
	switch network {
	case "unix":
		// Cleanup stale socket
		if _, statErr := os.Stat(addr); statErr == nil {
			if err := os.Remove(addr); err != nil {
				return fmt.Errorf("failed to remove stale socket: %w", err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(addr), 0755); err != nil {
			return fmt.Errorf("failed to create socket directory: %w", err)
		}
		listener, err = net.Listen("unix", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on socket: %w", err)
		}
		if err := os.Chmod(addr, 0600); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to set socket permissions: %w", err)
		}
	default:
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	s.server = &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}

	s.logger.WithField("listen", listen).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Handler returns the route mux, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/tree", s.handleGetTree)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/watch", s.handleWatchSocket)
	mux.HandleFunc("/api/config", s.handleGetConfig)
	return mux
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ParseListen splits a listen spec into network and address.
func ParseListen(listen string) (network, addr string) {
	switch {
	case strings.HasPrefix(listen, "unix:"):
		return "unix", strings.TrimPrefix(listen, "unix:")
	case strings.HasPrefix(listen, "tcp:"):
		return "tcp", strings.TrimPrefix(listen, "tcp:")
	default:
		return "unix", listen
	}
}

// handleGetTree returns the current snapshot as JSON, or {message}
// with a server-fault status when the root cannot be read.
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot()
	if err != nil {
		s.logger.WithError(err).Error("Snapshot fetch failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// handleStream provides Server-Sent Events (SSE) for live tree
// updates. Each event's data is one StreamMessage; the update with the
// current tree is delivered immediately on connect.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := s.service.Subscribe()
	if err != nil {
		s.logger.WithError(err).Error("Subscribe failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: err.Error()})
		return
	}
	defer s.service.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(msg models.StreamMessage) bool {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.WithError(err).Error("Failed to marshal stream message")
			return true
		}
		// SSE format: "data: {json}\n\n"
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(models.StreamMessage{Type: models.MessageConnected}) {
		return
	}
	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				// Pruned by the registry (saturated transport).
				return
			}
			if !writeEvent(msg) {
				return
			}
		}
	}
}

// handleWatchSocket serves the same message stream over a websocket.
// The TUI client uses this endpoint.
func (s *Server) handleWatchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, err := s.service.Subscribe()
	if err != nil {
		s.logger.WithError(err).Error("Subscribe failed")
		_ = conn.WriteJSON(models.StreamMessage{Type: models.MessageError, Message: err.Error()})
		return
	}
	defer s.service.Unsubscribe(sub)

	if err := conn.WriteJSON(models.StreamMessage{Type: models.MessageConnected}); err != nil {
		return
	}
	s.logger.Debug("Websocket client connected")

	// The client never sends data; reads only surface the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.logger.Debug("Websocket client disconnected")
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.runningConfig)
}
