package lobby

import "github.com/lox/pokerrooms/internal/game"

// Lobby lifecycle events, published alongside the round events from game
const (
	EventTypeLobbyCreated   game.EventType = "lobby_created"
	EventTypeRosterUpdated  game.EventType = "roster_updated"
	EventTypeJoinConfirmed  game.EventType = "join_confirmed"
	EventTypeLobbyDestroyed game.EventType = "lobby_destroyed"
	EventTypeRoundAborted   game.EventType = "round_aborted"
	EventTypeGameOver       game.EventType = "game_over"
)

// LobbyCreatedEvent tells the host their room exists
type LobbyCreatedEvent struct {
	Code     string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

func (e LobbyCreatedEvent) EventType() game.EventType { return EventTypeLobbyCreated }
func (e LobbyCreatedEvent) Recipient() string         { return e.PlayerID }

// RosterUpdatedEvent carries the seating after anyone joins or leaves
type RosterUpdatedEvent struct {
	Code    string              `json:"roomCode"`
	HostID  string              `json:"hostId"`
	Started bool                `json:"started"`
	Players []game.PublicPlayer `json:"players"`
}

func (e RosterUpdatedEvent) EventType() game.EventType { return EventTypeRosterUpdated }

// JoinConfirmedEvent is sent privately to a player who took a seat
type JoinConfirmedEvent struct {
	Code     string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
}

func (e JoinConfirmedEvent) EventType() game.EventType { return EventTypeJoinConfirmed }
func (e JoinConfirmedEvent) Recipient() string         { return e.PlayerID }

// LobbyDestroyedEvent is the last event a room ever publishes
type LobbyDestroyedEvent struct {
	Code   string `json:"roomCode"`
	Reason string `json:"reason"`
}

func (e LobbyDestroyedEvent) EventType() game.EventType { return EventTypeLobbyDestroyed }

// RoundAbortedEvent reports a round that could not continue
type RoundAbortedEvent struct {
	Code   string `json:"roomCode"`
	Round  int    `json:"round"`
	Reason string `json:"reason"`
}

func (e RoundAbortedEvent) EventType() game.EventType { return EventTypeRoundAborted }

// GameOverEvent is published when fewer than two seated players have chips
type GameOverEvent struct {
	Code     string              `json:"roomCode"`
	Rounds   int                 `json:"rounds"`
	WinnerID string              `json:"winnerId,omitempty"`
	Players  []game.PublicPlayer `json:"players"`
}

func (e GameOverEvent) EventType() game.EventType { return EventTypeGameOver }
