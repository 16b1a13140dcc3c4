package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Verb is a console command
type Verb string

const (
	VerbCreate Verb = "create"
	VerbJoin   Verb = "join"
	VerbStart  Verb = "start"
	VerbBet    Verb = "bet"
	VerbCall   Verb = "call"
	VerbCheck  Verb = "check"
	VerbFold   Verb = "fold"
	VerbHelp   Verb = "help"
	VerbQuit   Verb = "quit"
)

// Input is one parsed line from the console
type Input struct {
	Verb   Verb
	Code   string
	Amount int
}

var ErrEmptyInput = errors.New("empty input")

var aliases = map[string]Verb{
	"c": VerbCall, "k": VerbCheck, "f": VerbFold, "b": VerbBet,
	"q": VerbQuit, "exit": VerbQuit, "?": VerbHelp, "h": VerbHelp,
}

// ParseInput parses a console line such as "join ABC123" or "bet 50"
func ParseInput(line string) (Input, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Input{}, ErrEmptyInput
	}

	word := strings.ToLower(fields[0])
	verb, ok := aliases[word]
	if !ok {
		verb = Verb(word)
	}
	args := fields[1:]

	switch verb {
	case VerbCreate:
		if len(args) > 1 {
			return Input{}, fmt.Errorf("usage: create [CODE]")
		}
		in := Input{Verb: verb}
		if len(args) == 1 {
			in.Code = strings.ToUpper(args[0])
		}
		return in, nil

	case VerbJoin:
		if len(args) != 1 {
			return Input{}, fmt.Errorf("usage: join CODE")
		}
		return Input{Verb: verb, Code: strings.ToUpper(args[0])}, nil

	case VerbBet:
		if len(args) != 1 {
			return Input{}, fmt.Errorf("usage: bet AMOUNT")
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil || amount <= 0 {
			return Input{}, fmt.Errorf("bet amount must be a positive number, got %q", args[0])
		}
		return Input{Verb: verb, Amount: amount}, nil

	case VerbStart, VerbCall, VerbCheck, VerbFold, VerbHelp, VerbQuit:
		if len(args) != 0 {
			return Input{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return Input{Verb: verb}, nil
	}

	return Input{}, fmt.Errorf("unknown command %q (try help)", fields[0])
}

// Help lists the console commands
const Help = `commands:
  create [CODE]   create a room, optionally with your own code
  join CODE       join a room
  start           start the game (host only)
  bet AMOUNT      raise the current bet to AMOUNT
  call | check    match the current bet
  fold            give up this round
  quit            leave`
