// Package game implements the round engine for a lobby's Texas Hold'em game.
//
// The main type is Round, which owns the deck, community cards, pot, current
// bet and turn pointer for a single round, and moves through an explicit
// Street state machine:
//
//	PreFlop -> Flop -> Turn -> River -> Showdown -> Settled
//
// # Basic Usage
//
//	players := []*game.Player{game.NewPlayer("p1", "Alice", ""), game.NewPlayer("p2", "Bob", "")}
//	r, events, err := game.NewRound("ABCD12", 1, players, randutil.New(42))
//	events, err = r.Bet("p1", 100)
//	events, err = r.Call("p2")
//
// Every operation returns the events it produced. A rejected operation
// returns an error and leaves the round untouched. Private events (a player's
// hole cards) implement PrivateEvent and must only be delivered to
// Recipient().
//
// # Simplifications
//
// There are no blinds, no dealer rotation and no bet-parity enforcement:
// a bet sets the amount to call, a call pays the current bet, and a street
// resolves once every player still in the round has acted on it. Folded
// players are skipped by the turn pointer.
package game
