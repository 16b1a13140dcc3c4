package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerrooms/internal/history"
	"github.com/lox/pokerrooms/internal/lobby"
)

// Server is the WebSocket transport in front of the lobby dispatcher
type Server struct {
	addr       string
	upgrader   websocket.Upgrader
	router     chi.Router
	httpServer *http.Server
	hub        *Hub
	dispatcher *lobby.Dispatcher
	registry   *lobby.Registry
	history    history.Reader
	logger     *log.Logger
	newID      func() string

	// conns tracks connection cleanups so Shutdown can wait for them
	conns sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

// WithHistory exposes recorded rounds under /lobbies/{code}/rounds
func WithHistory(reader history.Reader) Option {
	return func(s *Server) { s.history = reader }
}

// WithIDGenerator replaces the uuid player id generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) { s.newID = fn }
}

// NewServer creates a new WebSocket server. Events the registry publishes
// must be routed to hub.
func NewServer(addr string, dispatcher *lobby.Dispatcher, registry *lobby.Registry, hub *Hub, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		hub:        hub,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger.WithPrefix("server"),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Route("/lobbies", func(r chi.Router) {
		r.Get("/", s.handleListLobbies)
		r.Get("/{code}", s.handleGetLobby)
		if s.history != nil {
			r.Get("/{code}/rounds", s.handleRounds)
		}
	})
	return r
}

// Handler returns the HTTP handler, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every connection and waits
// until each player has been disconnected from their lobby.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.CloseAll()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// handleWebSocket upgrades the request and registers a new player
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(ws, s.newID(), s.dispatcher, s.logger)
	s.conns.Add(1)
	s.hub.Register(client)
	s.dispatcher.Connect(client.PlayerID())

	if hello, err := NewMessage(MessageTypeConnected, ConnectedData{PlayerID: client.PlayerID()}); err == nil {
		_ = client.SendMessage(hello)
	}
	client.Start()
	s.logger.Info("Client connected", "player", client.PlayerID(), "total", s.hub.Len())

	go func() {
		defer s.conns.Done()
		<-client.Done()
		s.hub.Unregister(client)
		s.dispatcher.Disconnect(client.PlayerID())
		s.logger.Info("Client disconnected", "player", client.PlayerID(), "total", s.hub.Len())
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"lobbies": s.registry.List()})
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	l, err := s.registry.Get(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l.Summary())
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	code := lobby.NormalizeCode(chi.URLParam(r, "code"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, ErrorData{Code: CodeInvalidMessage, Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), code, limit)
	if err != nil {
		s.logger.Error("Failed to read round history", "code", code, "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"roomCode": code, "rounds": entries})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorData(err))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}
