package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerrooms/internal/lobby"
)

// Connection represents a WebSocket connection to one player
type Connection struct {
	conn       *websocket.Conn
	send       chan *Message
	playerID   string
	dispatcher *lobby.Dispatcher
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once
}

// NewConnection wraps conn for the player with the given id
func NewConnection(conn *websocket.Conn, playerID string, dispatcher *lobby.Dispatcher, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:       conn,
		send:       make(chan *Message, sendBufferSize),
		playerID:   playerID,
		dispatcher: dispatcher,
		logger:     logger.WithPrefix("conn").With("player", playerID),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// PlayerID returns the id this connection plays as
func (c *Connection) PlayerID() string {
	return c.playerID
}

// Done is closed once the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection. The write pump sends a close frame on its
// way out.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
	})
	return nil
}

// SendMessage queues a message for the client without blocking. A client
// that cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBufferSize = 256
)

var ErrConnectionClosed = errors.New("connection closed")

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("", CodeInvalidMessage, "Malformed message envelope")
			continue
		}
		c.handleMessage(&msg)

		if c.ctx.Err() != nil {
			return
		}
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage decodes a client command and hands it to the dispatcher.
// Successful commands are answered by the events the lobby publishes;
// failures are reported to this client only.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	var err error
	switch msg.Type {
	case MessageTypeCreateLobby:
		var data CreateLobbyData
		if !c.decode(msg, &data) {
			return
		}
		if strings.TrimSpace(data.DisplayName) == "" {
			c.sendError(msg.RequestID, CodeInvalidMessage, "displayName is required")
			return
		}
		var code string
		code, err = c.dispatcher.CreateLobby(c.identity(data.DisplayName, data.AvatarRef), data.RoomCode)
		if err == nil {
			c.logger.Info("Created lobby", "code", code)
		}

	case MessageTypeJoinLobby:
		var data JoinLobbyData
		if !c.decode(msg, &data) {
			return
		}
		if strings.TrimSpace(data.DisplayName) == "" || data.RoomCode == "" {
			c.sendError(msg.RequestID, CodeInvalidMessage, "roomCode and displayName are required")
			return
		}
		err = c.dispatcher.JoinLobby(c.identity(data.DisplayName, data.AvatarRef), data.RoomCode)

	case MessageTypeStartGame:
		var data RoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.dispatcher.StartGame(c.playerID, data.RoomCode)

	case MessageTypeBet:
		var data BetData
		if !c.decode(msg, &data) {
			return
		}
		err = c.dispatcher.Bet(c.playerID, data.RoomCode, data.Amount)

	case MessageTypeCall:
		var data RoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.dispatcher.Call(c.playerID, data.RoomCode)

	case MessageTypeFold:
		var data RoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.dispatcher.Fold(c.playerID, data.RoomCode)

	default:
		c.sendError(msg.RequestID, CodeUnknownType, "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		ed := errorData(err)
		if ed.Code == CodeInternal {
			c.logger.Error("Command failed", "type", msg.Type, "error", err)
		} else {
			c.logger.Debug("Command rejected", "type", msg.Type, "code", ed.Code, "error", err)
		}
		c.sendError(msg.RequestID, ed.Code, ed.Message)
	}
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, CodeInvalidMessage, "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

func (c *Connection) identity(name, avatar string) lobby.Identity {
	return lobby.Identity{ID: c.playerID, Name: strings.TrimSpace(name), Avatar: avatar}
}

// sendError sends an error message to this client only
func (c *Connection) sendError(requestID, code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = requestID

	_ = c.SendMessage(errorMsg)
}
