package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// StreamConfig holds WebSocket settings for the status stream.
type StreamConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool

	// Identify names the caller for logging; nil means anonymous.
	Identify func(r *http.Request) string
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Streamer pushes probe status to WebSocket clients. The probe counts as visible while at
// least one client is connected.
type Streamer struct {
	probe    *Probe
	upgrader websocket.Upgrader
	config   StreamConfig

	mu    sync.RWMutex
	conns map[*streamConn]struct{}
}

type streamConn struct {
	id       string
	userID   string
	conn     *websocket.Conn
	send     chan []byte
	streamer *Streamer
}

type clientMessage struct {
	Type string `json:"type"`
}

func NewStreamer(probe *Probe, config StreamConfig) *Streamer {
	return &Streamer{
		probe: probe,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		conns:  make(map[*streamConn]struct{}),
	}
}

// Start forwards probe status changes to every connection until ctx is done.
func (s *Streamer) Start(ctx context.Context) {
	updates, unsubscribe := s.probe.Subscribe()
	defer unsubscribe()
	log.Info().Msg("health stream started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("health stream shutting down")
			s.closeAll()
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			s.broadcast(status)
		}
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := "anonymous"
	if s.config.Identify != nil {
		userID = s.config.Identify(r)
	}
	if err := s.upgrade(w, r, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to upgrade health stream")
	}
}

func (s *Streamer) upgrade(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &streamConn{
		id:       uuid.NewString(),
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, 16),
		streamer: s,
	}
	if data, err := json.Marshal(s.probe.Status()); err == nil {
		c.send <- data
	}
	s.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

func (s *Streamer) register(c *streamConn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	n := len(s.conns)
	s.mu.Unlock()

	if n == 1 {
		s.probe.SetVisible(true)
	}
	log.Debug().Str("connection_id", c.id).Str("user_id", c.userID).Int("connections", n).Msg("health stream connection registered")
}

func (s *Streamer) unregister(c *streamConn) {
	s.mu.Lock()
	if _, ok := s.conns[c]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.conns, c)
	close(c.send)
	n := len(s.conns)
	s.mu.Unlock()

	if n == 0 {
		s.probe.SetVisible(false)
	}
	log.Debug().Str("connection_id", c.id).Int("connections", n).Msg("health stream connection unregistered")
}

// Connections is the number of live clients.
func (s *Streamer) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Streamer) broadcast(status Status) {
	data, err := json.Marshal(status)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal health status")
		return
	}

	// Sends happen under the read lock so unregister cannot close a channel mid-send.
	var slow []*streamConn
	s.mu.RLock()
	for c := range s.conns {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("connection_id", c.id).Msg("health stream buffer full, closing connection")
		s.unregister(c)
		c.conn.Close()
	}
}

func (s *Streamer) closeAll() {
	s.mu.RLock()
	targets := make([]*streamConn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.RUnlock()
	for _, c := range targets {
		s.unregister(c)
	}
}

func (c *streamConn) writePump() {
	ticker := time.NewTicker(c.streamer.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.streamer.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.streamer.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.id).Msg("failed to write health status")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.streamer.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles pongs and the "check" command, which forces an immediate re-check.
func (c *streamConn) readPump() {
	defer func() {
		c.streamer.unregister(c)
		c.conn.Close()
	}()

	cfg := c.streamer.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.id).Msg("unexpected health stream close")
			}
			return
		}

		var msg clientMessage
		if json.Unmarshal(message, &msg) == nil && msg.Type == "check" {
			go c.streamer.probe.Check(context.Background())
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
