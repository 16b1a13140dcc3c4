package server

import "github.com/lox/pokerrooms/internal/game"

// MessageType represents a WebSocket message type with type safety
type MessageType string

// Client to server commands. Server to client messages reuse the event
// type names from the game and lobby packages.
const (
	MessageTypeCreateLobby MessageType = "create_lobby"
	MessageTypeJoinLobby   MessageType = "join_lobby"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeBet         MessageType = "bet"
	MessageTypeCall        MessageType = "call"
	MessageTypeFold        MessageType = "fold"

	MessageTypeConnected MessageType = "connected"
	MessageTypeError     MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// EventMessageType maps a lobby event onto the wire
func EventMessageType(ev game.Event) MessageType {
	return MessageType(ev.EventType())
}
