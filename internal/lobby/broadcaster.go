package lobby

import "github.com/lox/pokerrooms/internal/game"

// Broadcaster delivers lobby events to connected players. Implementations
// must not block; a slow recipient drops events rather than stalling a room.
type Broadcaster interface {
	// Broadcast delivers ev to every listed member of the room
	Broadcast(code string, playerIDs []string, ev game.Event)
	// Send delivers ev to one player only
	Send(playerID string, ev game.Event)
}

// Publish delivers events in order. Private events go only to their
// recipient; everything else is broadcast to playerIDs.
func Publish(b Broadcaster, code string, playerIDs []string, events []game.Event) {
	for _, ev := range events {
		if pe, ok := ev.(game.PrivateEvent); ok {
			b.Send(pe.Recipient(), ev)
			continue
		}
		b.Broadcast(code, playerIDs, ev)
	}
}

// Discard is a Broadcaster that drops everything
var Discard Broadcaster = discard{}

type discard struct{}

func (discard) Broadcast(string, []string, game.Event) {}
func (discard) Send(string, game.Event)                {}
