package server

import (
	"errors"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/lobby"
)

// Wire error codes
const (
	CodeAlreadyExists   = "code_already_exists"
	CodeLobbyNotFound   = "lobby_not_found"
	CodeLobbyFull       = "lobby_full"
	CodeAlreadyStarted  = "already_started"
	CodeNotHost         = "not_host"
	CodeTooFewPlayers   = "too_few_players"
	CodeTooManyPlayers  = "too_many_players"
	CodeNotYourTurn     = "not_your_turn"
	CodeInvalidAmount   = "invalid_amount"
	CodeInsufficient    = "insufficient_chips"
	CodeNotInLobby      = "not_in_lobby"
	CodeAlreadyInLobby  = "already_in_lobby"
	CodeUnknownPlayer   = "unknown_player"
	CodeInvalidCode     = "invalid_code"
	CodeNoActiveRound   = "no_active_round"
	CodeInvalidMessage  = "invalid_message"
	CodeUnknownType     = "unknown_message_type"
	CodeInternal        = "internal_error"
	internalErrorDetail = "internal error"
)

var wireCodes = []struct {
	err  error
	code string
}{
	{lobby.ErrCodeAlreadyExists, CodeAlreadyExists},
	{lobby.ErrLobbyNotFound, CodeLobbyNotFound},
	{lobby.ErrLobbyClosed, CodeLobbyNotFound},
	{lobby.ErrLobbyFull, CodeLobbyFull},
	{lobby.ErrGameAlreadyStarted, CodeAlreadyStarted},
	{lobby.ErrNotHost, CodeNotHost},
	{game.ErrTooFewPlayers, CodeTooFewPlayers},
	{game.ErrTooManyPlayers, CodeTooManyPlayers},
	{game.ErrNotYourTurn, CodeNotYourTurn},
	{game.ErrInvalidAmount, CodeInvalidAmount},
	{game.ErrInsufficientChips, CodeInsufficient},
	{lobby.ErrNotInLobby, CodeNotInLobby},
	{game.ErrUnknownPlayer, CodeNotInLobby},
	{lobby.ErrAlreadyInLobby, CodeAlreadyInLobby},
	{lobby.ErrAlreadySeated, CodeAlreadyInLobby},
	{lobby.ErrUnknownPlayer, CodeUnknownPlayer},
	{lobby.ErrInvalidCode, CodeInvalidCode},
	{lobby.ErrGameNotStarted, CodeNoActiveRound},
	{game.ErrRoundOver, CodeNoActiveRound},
}

// ErrorCode maps a dispatcher error to its wire code. Anything unknown,
// including game.ErrInternal, is an internal error.
func ErrorCode(err error) string {
	if errors.Is(err, game.ErrInternal) {
		return CodeInternal
	}
	for _, wc := range wireCodes {
		if errors.Is(err, wc.err) {
			return wc.code
		}
	}
	return CodeInternal
}

// errorData builds the payload sent to the client. Internal failures are
// not described beyond their code.
func errorData(err error) ErrorData {
	code := ErrorCode(err)
	if code == CodeInternal {
		return ErrorData{Code: code, Message: internalErrorDetail}
	}
	return ErrorData{Code: code, Message: err.Error()}
}
