package server

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/lobby"
)

// Hub maps player ids to their live connections and implements
// lobby.Broadcaster on top of them.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	logger *log.Logger
}

var _ lobby.Broadcaster = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Connection),
		logger: logger.WithPrefix("hub"),
	}
}

// Register associates a connection with its player id
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.PlayerID()] = c
}

// Unregister forgets c if it is still the player's connection
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.PlayerID()] == c {
		delete(h.conns, c.PlayerID())
	}
}

// Len returns the number of registered connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends ev to every listed player that is still connected
func (h *Hub) Broadcast(code string, playerIDs []string, ev game.Event) {
	msg, err := NewMessage(EventMessageType(ev), ev)
	if err != nil {
		h.logger.Error("Failed to encode event", "code", code, "type", ev.EventType(), "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, id := range playerIDs {
		conn, ok := h.conns[id]
		if !ok {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			h.logger.Debug("Dropped event", "player", id, "type", msg.Type, "error", err)
			continue
		}
		count++
	}
	h.logger.Debug("Broadcast event", "code", code, "type", msg.Type, "recipients", count)
}

// Send delivers ev to a single player
func (h *Hub) Send(playerID string, ev game.Event) {
	msg, err := NewMessage(EventMessageType(ev), ev)
	if err != nil {
		h.logger.Error("Failed to encode event", "player", playerID, "type", ev.EventType(), "error", err)
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := conn.SendMessage(msg); err != nil {
		h.logger.Debug("Dropped private event", "player", playerID, "type", msg.Type, "error", err)
	}
}

// CloseAll closes every registered connection
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
