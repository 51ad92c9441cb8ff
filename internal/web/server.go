// Package web exposes the band history to browser clients: a WebSocket
// feed of frames at a rate-limited cadence and a JSON status endpoint.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"spektar/internal/dsp"
	"spektar/internal/pipeline"
)

// Server broadcasts band frames to connected WebSocket clients.
type Server struct {
	pipe *pipeline.Pipeline
	log  *logrus.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	server   *http.Server

	lastSend        time.Time
	minSendInterval time.Duration
}

// FrameMessage is one WebSocket payload.
type FrameMessage struct {
	Type  string        `json:"type"`
	Bands dsp.BandFrame `json:"bands"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Bands        dsp.BandFrame  `json:"bands,omitempty"`
	HistoryDepth int            `json:"historyDepth"`
	NumBands     int            `json:"numBands"`
	Stats        pipeline.Stats `json:"stats"`
}

// NewServer creates a Server reading from the pipeline.
func NewServer(pipe *pipeline.Pipeline, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		pipe:    pipe,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local visualization tool, any origin may watch
			},
		},
		minSendInterval: 16 * time.Millisecond, // ~60 Hz cap
	}
}

// Start begins serving on the given port in a goroutine.
func (s *Server) Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		s.log.WithField("addr", s.server.Addr).Info("web server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("web server stopped")
		}
	}()
}

// Broadcast pushes the latest band frame to all clients, dropping the
// update when it arrives faster than the rate limit. Called from the
// render loop; absence of a frame is a no-op.
func (s *Server) Broadcast() {
	frame, ok := s.pipe.CurrentBandFrame()
	if !ok {
		return
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) == 0 || now.Sub(s.lastSend) < s.minSendInterval {
		return
	}
	s.lastSend = now

	payload, err := json.Marshal(FrameMessage{Type: "bands", Bands: frame})
	if err != nil {
		return
	}
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.log.WithField("remote", conn.RemoteAddr().String()).Debug("websocket client connected")

	// Drain reads to detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	frame, _ := s.pipe.CurrentBandFrame()
	status := StatusResponse{
		Bands:        frame,
		HistoryDepth: len(s.pipe.History()),
		NumBands:     s.pipe.NumBands(),
		Stats:        s.pipe.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// Close disconnects all clients and shuts the server down.
func (s *Server) Close() error {
	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Close()
}
