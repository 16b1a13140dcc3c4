package game

import "errors"

// Validation errors: reported to the sender only, the round is unchanged.
var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrRoundOver         = errors.New("round is not accepting actions")
	ErrTooFewPlayers     = errors.New("too few players")
	ErrTooManyPlayers    = errors.New("too many players")
)

// ErrInternal wraps invariant violations (deck underflow, evaluator
// failure). A round that returns it cannot continue.
var ErrInternal = errors.New("internal round error")
