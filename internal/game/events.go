package game

import "github.com/lox/pokerrooms/internal/deck"

// EventType represents a game event type with type safety
type EventType string

// Round-level events. The lobby adds its own (roster, lifecycle) on top.
const (
	EventTypeGameStarted    EventType = "game_started"
	EventTypeRoundStarted   EventType = "round_started"
	EventTypeHoleCards      EventType = "hole_cards"
	EventTypeTurnChanged    EventType = "turn_changed"
	EventTypePotUpdated     EventType = "pot_updated"
	EventTypeChipsUpdated   EventType = "chips_updated"
	EventTypePlayerFolded   EventType = "player_folded"
	EventTypeStreetAdvanced EventType = "street_advanced"
	EventTypeRoundEnded     EventType = "round_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is anything that happened in a lobby that participants should hear about
type Event interface {
	EventType() EventType
}

// PrivateEvent is delivered only to Recipient and never broadcast
type PrivateEvent interface {
	Event
	Recipient() string
}

// RoundStartedEvent announces seating and an empty pot. The first round
// of a game is reported as game_started.
type RoundStartedEvent struct {
	Code    string         `json:"roomCode"`
	Round   int            `json:"round"`
	Players []PublicPlayer `json:"players"`
	Pot     int            `json:"pot"`
}

func (e RoundStartedEvent) EventType() EventType {
	if e.Round <= 1 {
		return EventTypeGameStarted
	}
	return EventTypeRoundStarted
}

// HoleCardsEvent carries a player's two private cards
type HoleCardsEvent struct {
	PlayerID string      `json:"playerId"`
	Round    int         `json:"round"`
	Cards    []deck.Card `json:"cards"`
}

func (e HoleCardsEvent) EventType() EventType { return EventTypeHoleCards }
func (e HoleCardsEvent) Recipient() string    { return e.PlayerID }

// TurnChangedEvent names the player who may act next
type TurnChangedEvent struct {
	PlayerID   string `json:"playerId"`
	Seat       int    `json:"seat"`
	Street     Street `json:"street"`
	CurrentBet int    `json:"currentBet"`
	Pot        int    `json:"pot"`
}

func (e TurnChangedEvent) EventType() EventType { return EventTypeTurnChanged }

// PotUpdatedEvent follows a bet or call
type PotUpdatedEvent struct {
	PlayerID   string `json:"playerId"`
	Action     string `json:"action"`
	Amount     int    `json:"amount"`
	Pot        int    `json:"pot"`
	CurrentBet int    `json:"currentBet"`
}

func (e PotUpdatedEvent) EventType() EventType { return EventTypePotUpdated }

// ChipsUpdatedEvent reports a player's new balance
type ChipsUpdatedEvent struct {
	PlayerID string `json:"playerId"`
	Chips    int    `json:"chips"`
}

func (e ChipsUpdatedEvent) EventType() EventType { return EventTypeChipsUpdated }

// PlayerFoldedEvent is published for explicit folds and for disconnects
type PlayerFoldedEvent struct {
	PlayerID     string `json:"playerId"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

func (e PlayerFoldedEvent) EventType() EventType { return EventTypePlayerFolded }

// StreetAdvancedEvent reveals community cards for the new street
type StreetAdvancedEvent struct {
	Street   Street      `json:"street"`
	NewCards []deck.Card `json:"newCards"`
	Board    []deck.Card `json:"board"`
	Pot      int         `json:"pot"`
}

func (e StreetAdvancedEvent) EventType() EventType { return EventTypeStreetAdvanced }

// Winner is a share of the pot awarded at settlement
type Winner struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	Hand     string `json:"hand,omitempty"`
}

// ShowdownHand is a live player's revealed hand at showdown
type ShowdownHand struct {
	PlayerID  string      `json:"playerId"`
	HoleCards []deck.Card `json:"holeCards"`
	Hand      string      `json:"hand"`
}

// RoundEndedEvent announces winners and every player's new chip total
type RoundEndedEvent struct {
	Round       int            `json:"round"`
	Pot         int            `json:"pot"`
	Board       []deck.Card    `json:"board"`
	Winners     []Winner       `json:"winners"`
	Showdown    []ShowdownHand `json:"showdown,omitempty"`
	Uncontested bool           `json:"uncontested"`
	Players     []PublicPlayer `json:"players"`
}

func (e RoundEndedEvent) EventType() EventType { return EventTypeRoundEnded }
