// Package server exposes the dashboard datasets over HTTP and pushes
// refreshes and cross-view interactions to connected views over websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sumatoshi-tech/reposcope/internal/session"
	"github.com/Sumatoshi-tech/reposcope/pkg/linkage"
)

const (
	broadcastBuffer   = 256
	shutdownTimeout   = 5 * time.Second
	writeWaitDuration = 10 * time.Second
)

// MessageType tags a websocket push.
type MessageType string

// Websocket message types.
const (
	MessageTypeRefresh MessageType = "refresh"
	MessageTypeLinkage MessageType = "linkage"
)

// UpdateMessage is one websocket push.
type UpdateMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

var upgrader = websocket.Upgrader{
	// The dashboard serves its own frontend; cross-origin views are fine.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server wires one session to the HTTP surface.
type Server struct {
	sess    *session.Session
	addr    string
	metrics *metrics
	httpSrv *http.Server

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	broadcast chan UpdateMessage

	// The session bus is synchronous and reentrant, not concurrency-safe;
	// emissions from per-connection read loops are serialized here.
	emitMu sync.Mutex
}

// New builds a server around the session. Call BroadcastSnapshot from the
// session's refresh hook to push updates, and AttachLinkage once the
// repository is loaded.
func New(sess *session.Session, addr string) *Server {
	return &Server{
		sess:      sess,
		addr:      addr,
		metrics:   newMetrics(),
		clients:   map[*websocket.Conn]bool{},
		broadcast: make(chan UpdateMessage, broadcastBuffer),
	}
}

// AttachLinkage subscribes the server to the session bus so in-process
// linkage emissions reach every connected websocket view. Call after Load:
// loading a repository resets the bus and drops prior subscriptions.
func (s *Server) AttachLinkage() {
	for _, kind := range []linkage.Kind{linkage.KindSelectAuthor, linkage.KindFilterTime, linkage.KindHoverFile} {
		s.sess.Bus().Subscribe(kind, "server", func(event linkage.Event) {
			s.metrics.linkageEvents.Inc()
			s.push(UpdateMessage{Type: MessageTypeLinkage, Data: event})
		})
	}
}

// Handler returns the full route table, usable directly in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/hierarchy", s.handleHierarchy)
	mux.HandleFunc("/api/series", s.handleSeries)
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/meta", s.handleMeta)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.metrics.handler())

	return mux
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: writeWaitDuration,
	}

	go s.broadcastLoop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	slog.Info("dashboard listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}

// BroadcastSnapshot pushes a refreshed dataset to every connected view.
func (s *Server) BroadcastSnapshot(snap session.Snapshot) {
	s.metrics.refreshes.Inc()
	s.push(UpdateMessage{Type: MessageTypeRefresh, Data: snap})
}

// push enqueues a message without blocking; a full buffer drops the message
// (views resynchronize on their next refresh push).
func (s *Server) push(msg UpdateMessage) {
	select {
	case s.broadcast <- msg:
	default:
		slog.Warn("broadcast buffer full, dropping message")
	}
}

func (s *Server) broadcastLoop() {
	for msg := range s.broadcast {
		s.clientsMu.RLock()
		conns := make([]*websocket.Conn, 0, len(s.clients))

		for conn := range s.clients {
			conns = append(conns, conn)
		}
		s.clientsMu.RUnlock()

		for _, conn := range conns {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("broadcast failed, dropping client", "error", err)
				s.removeClient(conn)
			}
		}
	}
}

func (s *Server) addClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMu.Unlock()

	s.metrics.clients.Set(float64(total))
	slog.Info("view connected", "total", total)
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()

	if !s.clients[conn] {
		s.clientsMu.Unlock()

		return
	}

	delete(s.clients, conn)
	total := len(s.clients)
	s.clientsMu.Unlock()

	conn.Close()
	s.metrics.clients.Set(float64(total))
	slog.Info("view disconnected", "total", total)
}

// handleWebSocket upgrades the connection, sends the current snapshot, and
// relays incoming linkage events onto the session bus.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)

		return
	}

	// The initial snapshot goes out before the connection joins the
	// broadcast set: once registered, broadcastLoop is the connection's
	// only writer, and gorilla permits exactly one at a time.
	if snap, snapErr := s.sess.Snapshot(); snapErr == nil {
		if writeErr := conn.WriteJSON(UpdateMessage{Type: MessageTypeRefresh, Data: snap}); writeErr != nil {
			conn.Close()

			return
		}
	}

	s.addClient(conn)
	defer s.removeClient(conn)

	for {
		_, payload, readErr := conn.ReadMessage()
		if readErr != nil {
			return
		}

		var event linkage.Event
		if jsonErr := json.Unmarshal(payload, &event); jsonErr != nil {
			slog.Warn("bad linkage message", "error", jsonErr)

			continue
		}

		s.emitMu.Lock()
		s.sess.Bus().Emit(event.Kind, event.Payload, event.SourceID)
		s.emitMu.Unlock()
	}
}
