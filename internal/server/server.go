// Package server exposes player sessions over HTTP and WebSocket.
//
// Each player name maps to one session.Session, shared by every connection
// using that name. Actions are serialized by the session, and pending dealer
// steps are run by the connection that triggered them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/session"
)

// Server represents the WebSocket server
type Server struct {
	upgrader    websocket.Upgrader
	store       session.Store
	driver      *session.Driver
	sessionOpts []session.Option
	logger      *log.Logger

	mu          sync.Mutex
	sessions    map[string]*session.Session
	connections map[*Connection]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server opening sessions from store. opts apply to every
// session it opens. A nil logger uses the default logger.
func NewServer(store session.Store, driver *session.Driver, logger *log.Logger, opts ...session.Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("server")
	if driver == nil {
		driver = session.NewDriver(nil, 0, logger)
	}

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		store:       store,
		driver:      driver,
		sessionOpts: append([]session.Option{session.WithLogger(logger)}, opts...),
		logger:      logger,
		sessions:    make(map[string]*session.Session),
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/sessions/{player}/snapshot", s.handleSnapshot)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Stop closes every connection
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	return nil
}

// Session returns the open session for player, opening it from the store on
// first use.
func (s *Server) Session(ctx context.Context, player string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[player]; ok {
		return sess, nil
	}
	sess, err := session.Open(ctx, player, s.store, s.sessionOpts...)
	if err != nil {
		return nil, err
	}
	s.sessions[player] = sess
	return sess, nil
}

// ConnectedPlayers returns the player name of every open connection
func (s *Server) ConnectedPlayers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]string, 0, len(s.connections))
	for conn := range s.connections {
		players = append(players, conn.player)
	}
	return players
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "player", conn.player, "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "player", conn.player, "total", total)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		player = "guest-" + uuid.NewString()
	}

	sess, err := s.Session(r.Context(), player)
	if err != nil {
		s.logger.Error("Failed to open session", "player", player, "error", err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(s.ctx, ws, sess, s.driver, s.logger)
	s.register(conn)
	conn.Start()
	conn.sendSnapshot("")

	go func() {
		<-conn.ctx.Done()
		s.unregister(conn)
	}()
}

// handleHealth reports liveness with session and connection counts
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	health := Health{
		Status:      "ok",
		Sessions:    len(s.sessions),
		Connections: len(s.connections),
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health) // Ignore write errors for health check
}

// handleSnapshot returns a player's persisted state as JSON. Open sessions
// answer from memory.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")

	s.mu.Lock()
	sess, open := s.sessions[player]
	s.mu.Unlock()

	var snap *session.Snapshot
	if open {
		current := sess.Snapshot()
		snap = &current
	} else {
		loaded, err := s.store.Load(r.Context(), player)
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.logger.Error("Failed to load snapshot", "player", player, "error", err)
			http.Error(w, "failed to load session", http.StatusInternalServerError)
			return
		}
		snap = loaded
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("Failed to write snapshot", "player", player, "error", err)
	}
}
