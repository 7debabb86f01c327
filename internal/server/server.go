// Package server exposes the round engine over websocket: a JSON message
// envelope per operation, plus a broadcast feed of round events to every
// connected client.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lastpot/lastpot/internal/round"
)

// Server is the websocket front-end for the round engine.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	service     *Service
	httpServer  *http.Server
}

// NewServer creates a websocket server around the given service. Wire it
// to the engine's event bus via bus.Subscribe(srv) so round events reach
// connected clients.
func NewServer(addr string, service *Service, logger *log.Logger) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		service:     service,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting websocket server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the listener down and closes all client connections.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	return err
}

// OnEvent implements round.Subscriber: every round event is converted to
// a round_event message and broadcast to all connected clients.
func (s *Server) OnEvent(event round.Event) {
	data := RoundEventData{
		Event:     event.EventType().String(),
		Timestamp: event.Timestamp(),
	}

	switch e := event.(type) {
	case round.BetPlacedEvent:
		data.RoundID = e.RoundID
		data.Identity = e.Bettor
		data.Amount = e.Amount
		data.Fund = e.Fund
		data.CloseTime = e.CloseTime
	case round.PrizeClaimedEvent:
		data.RoundID = e.RoundID
		data.Identity = e.Winner
		data.Caller = e.Caller
		data.Amount = e.Amount
	case round.RoundStartedEvent:
		data.RoundID = e.RoundID
		data.Identity = e.Admin
		data.Amount = e.Stake
		data.CloseTime = e.CloseTime
	case round.AdminTransferredEvent:
		data.Identity = e.Current
		data.Caller = e.Previous
	}

	msg, err := NewMessage(MessageTypeRoundEvent, data)
	if err != nil {
		s.logger.Error("failed to encode round event", "error", err)
		return
	}
	s.Broadcast(msg)
}

// Broadcast sends a message to every connected client.
func (s *Server) Broadcast(msg *Message) {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.SendMessage(msg)
	}
}

// ConnectionCount returns the number of connected clients.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := NewConnection(conn, s.logger, s.service, s)

	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()

	s.logger.Info("client connected", "total", total)
	c.Start()
}

func (s *Server) unregisterConnection(c *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[c]; ok {
		delete(s.connections, c)
	}
	total := len(s.connections)
	s.mu.Unlock()

	s.logger.Info("client disconnected", "total", total)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
