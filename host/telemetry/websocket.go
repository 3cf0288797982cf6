package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"crsfrx/protocol"
)

// ChannelMessage is broadcast to websocket clients for every decoded channel set
type ChannelMessage struct {
	Type  string                      `json:"type"`
	Time  int64                       `json:"time_ms"`
	Raw   [protocol.MaxChannel]uint16 `json:"raw"`
	Pulse [protocol.MaxChannel]uint16 `json:"us"`
	Link  *Snapshot                   `json:"link,omitempty"`
}

// ChannelStream serves live channel values over websocket
type ChannelStream struct {
	clients   map[*websocket.Conn]*sync.Mutex // Each connection has its own write mutex
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
	tracker   *Tracker
	logger    *log.Logger
}

// NewChannelStream creates a stream. Messages include the link state when tracker is set.
func NewChannelStream(tracker *Tracker, logger *log.Logger) *ChannelStream {
	if logger == nil {
		logger = log.Default()
	}
	return &ChannelStream{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		tracker: tracker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (s *ChannelStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.clientsMu.Unlock()
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	// Drain reads so close frames are processed
	go func() {
		defer s.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *ChannelStream) remove(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.clientsMu.Unlock()
}

// ClientCount returns the number of connected clients
func (s *ChannelStream) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Publish broadcasts a channel set. It matches link.ChannelHandler.
func (s *ChannelStream) Publish(at time.Time, channels [protocol.MaxChannel]uint16) {
	msg := ChannelMessage{
		Type: "channels",
		Time: at.UnixMilli(),
		Raw:  channels,
	}
	for i, v := range channels {
		msg.Pulse[i] = protocol.ChannelToPulseWidth(v)
	}
	if s.tracker != nil {
		snap := s.tracker.Snapshot()
		msg.Link = &snap
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("websocket marshal failed", "err", err)
		return
	}
	s.broadcast(data)
}

func (s *ChannelStream) broadcast(data []byte) {
	// Copy client list first, then release lock before writing
	s.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	mus := make([]*sync.Mutex, 0, len(s.clients))
	for conn, mu := range s.clients {
		conns = append(conns, conn)
		mus = append(mus, mu)
	}
	s.clientsMu.RUnlock()

	for i, conn := range conns {
		mus[i].Lock()
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		err := conn.WriteMessage(websocket.TextMessage, data)
		mus[i].Unlock()

		if err != nil {
			s.logger.Debug("websocket write failed", "err", err)
			s.remove(conn)
		}
	}
}
