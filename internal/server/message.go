package server

import (
	"encoding/json"
	"time"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateLobbyData struct {
	RoomCode    string `json:"roomCode,omitempty"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
}

type JoinLobbyData struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
}

// RoomData is the payload of start_game, call and fold
type RoomData struct {
	RoomCode string `json:"roomCode"`
}

type BetData struct {
	RoomCode string `json:"roomCode"`
	Amount   int    `json:"amount"`
}

// Server → Client Messages

// ConnectedData tells a new connection which player id it was given
type ConnectedData struct {
	PlayerID string `json:"playerId"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
