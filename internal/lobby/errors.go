package lobby

import "errors"

// Resource errors, reported to the sender of the failed command
var (
	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrCodeAlreadyExists  = errors.New("lobby code already exists")
	ErrLobbyFull          = errors.New("lobby is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrLobbyClosed        = errors.New("lobby closed")
)

// Validation errors
var (
	ErrNotHost            = errors.New("only the host can start the game")
	ErrAlreadySeated      = errors.New("player already seated in this lobby")
	ErrNotInLobby         = errors.New("player is not in this lobby")
	ErrAlreadyInLobby     = errors.New("player is already in a lobby")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrInvalidCode        = errors.New("invalid lobby code")
	ErrCodeSpaceExhausted = errors.New("no free lobby code")
)
