package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerrooms/internal/lobby"
	"github.com/lox/pokerrooms/internal/server"
)

// Client represents a WebSocket client for the lobby server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	playerID string
	roomCode string
	requests int
}

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 64),
		receive:   make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect() error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Messages delivers every message from the server in order. It is closed
// when the connection ends.
func (c *Client) Messages() <-chan *server.Message {
	return c.receive
}

// PlayerID returns the id the server assigned, once known
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RoomCode returns the room this client is seated in, if any
func (c *Client) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// SendMessage queues a message for the server
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) command(typ server.MessageType, data any) (string, error) {
	msg, err := server.NewMessage(typ, data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.requests++
	msg.RequestID = fmt.Sprintf("req-%d", c.requests)
	c.mu.Unlock()

	return msg.RequestID, c.SendMessage(msg)
}

// CreateLobby asks for a new room. An empty code lets the server pick one.
func (c *Client) CreateLobby(code, displayName, avatar string) (string, error) {
	return c.command(server.MessageTypeCreateLobby, server.CreateLobbyData{
		RoomCode:    code,
		DisplayName: displayName,
		AvatarRef:   avatar,
	})
}

// JoinLobby asks for a seat in an existing room
func (c *Client) JoinLobby(code, displayName, avatar string) (string, error) {
	return c.command(server.MessageTypeJoinLobby, server.JoinLobbyData{
		RoomCode:    code,
		DisplayName: displayName,
		AvatarRef:   avatar,
	})
}

// StartGame starts the game in the current room
func (c *Client) StartGame() (string, error) {
	return c.command(server.MessageTypeStartGame, server.RoomData{RoomCode: c.RoomCode()})
}

// Bet raises the current bet to amount
func (c *Client) Bet(amount int) (string, error) {
	return c.command(server.MessageTypeBet, server.BetData{RoomCode: c.RoomCode(), Amount: amount})
}

// Call matches the current bet
func (c *Client) Call() (string, error) {
	return c.command(server.MessageTypeCall, server.RoomData{RoomCode: c.RoomCode()})
}

// Fold gives up the current round
func (c *Client) Fold() (string, error) {
	return c.command(server.MessageTypeFold, server.RoomData{RoomCode: c.RoomCode()})
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer close(c.receive)

	for {
		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if c.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			c.cancel()
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)
		c.track(&msg)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// track keeps the player id and room code in step with the server
func (c *Client) track(msg *server.Message) {
	var data struct {
		PlayerID string `json:"playerId"`
		RoomCode string `json:"roomCode"`
	}

	switch msg.Type {
	case server.MessageTypeConnected:
		if json.Unmarshal(msg.Data, &data) == nil {
			c.mu.Lock()
			c.playerID = data.PlayerID
			c.mu.Unlock()
		}
	case server.MessageType(lobby.EventTypeLobbyCreated), server.MessageType(lobby.EventTypeJoinConfirmed):
		if json.Unmarshal(msg.Data, &data) == nil {
			c.mu.Lock()
			c.roomCode = strings.ToUpper(data.RoomCode)
			c.mu.Unlock()
		}
	case server.MessageType(lobby.EventTypeLobbyDestroyed):
		c.mu.Lock()
		c.roomCode = ""
		c.mu.Unlock()
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Disconnect()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
