package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lox/pokerrooms/internal/deck"
	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/lobby"
	"github.com/lox/pokerrooms/internal/server"
)

// Renderer turns server messages into console lines for one player
type Renderer struct {
	// Self is the local player's id; their own turn and cards stand out
	Self  string
	names map[string]string
}

// NewRenderer creates a renderer for the player with id self
func NewRenderer(self string) *Renderer {
	return &Renderer{Self: self, names: make(map[string]string)}
}

// Render returns the console text for msg, or "" for messages not worth
// showing.
func (r *Renderer) Render(msg *server.Message) string {
	switch msg.Type {
	case server.MessageTypeConnected:
		var d server.ConnectedData
		if decode(msg, &d) {
			r.Self = d.PlayerID
			return InfoStyle.Render("connected as " + d.PlayerID)
		}

	case server.MessageTypeError:
		var d server.ErrorData
		if decode(msg, &d) {
			return ErrorStyle.Render(fmt.Sprintf("✗ %s: %s", d.Code, d.Message))
		}

	case server.MessageType(lobby.EventTypeLobbyCreated):
		var d lobby.LobbyCreatedEvent
		if decode(msg, &d) {
			return SuccessStyle.Render("room " + d.Code + " created, share the code to invite players")
		}

	case server.MessageType(lobby.EventTypeJoinConfirmed):
		var d lobby.JoinConfirmedEvent
		if decode(msg, &d) {
			return SuccessStyle.Render(fmt.Sprintf("joined %s in seat %d with %d chips", d.Code, d.Seat, d.Chips))
		}

	case server.MessageType(lobby.EventTypeRosterUpdated):
		var d lobby.RosterUpdatedEvent
		if decode(msg, &d) {
			r.remember(d.Players)
			return r.roster(d)
		}

	case server.MessageType(game.EventTypeGameStarted), server.MessageType(game.EventTypeRoundStarted):
		var d game.RoundStartedEvent
		if decode(msg, &d) {
			r.remember(d.Players)
			return HeaderStyle.Render(fmt.Sprintf(" %s round %d ", d.Code, d.Round))
		}

	case server.MessageType(game.EventTypeHoleCards):
		var d game.HoleCardsEvent
		if decode(msg, &d) {
			return "your cards: " + FormatCards(d.Cards)
		}

	case server.MessageType(game.EventTypeTurnChanged):
		var d game.TurnChangedEvent
		if decode(msg, &d) {
			if d.PlayerID == r.Self {
				return TurnStyle.Render(fmt.Sprintf("your turn (%s, bet %d, pot %d)", d.Street, d.CurrentBet, d.Pot))
			}
			return InfoStyle.Render(fmt.Sprintf("waiting for %s", r.name(d.PlayerID)))
		}

	case server.MessageType(game.EventTypePotUpdated):
		var d game.PotUpdatedEvent
		if decode(msg, &d) {
			return fmt.Sprintf("%s %s %d, pot %d", r.name(d.PlayerID), d.Action, d.Amount, d.Pot)
		}

	case server.MessageType(game.EventTypeChipsUpdated):
		return ""

	case server.MessageType(game.EventTypePlayerFolded):
		var d game.PlayerFoldedEvent
		if decode(msg, &d) {
			if d.Disconnected {
				return WarningStyle.Render(r.name(d.PlayerID) + " disconnected and folds")
			}
			return r.name(d.PlayerID) + " folds"
		}

	case server.MessageType(game.EventTypeStreetAdvanced):
		var d game.StreetAdvancedEvent
		if decode(msg, &d) {
			return fmt.Sprintf("%s: %s", d.Street, FormatCards(d.Board))
		}

	case server.MessageType(game.EventTypeRoundEnded):
		var d game.RoundEndedEvent
		if decode(msg, &d) {
			return r.roundEnded(d)
		}

	case server.MessageType(lobby.EventTypeRoundAborted):
		var d lobby.RoundAbortedEvent
		if decode(msg, &d) {
			return ErrorStyle.Render(fmt.Sprintf("round %d aborted: %s", d.Round, d.Reason))
		}

	case server.MessageType(lobby.EventTypeGameOver):
		var d lobby.GameOverEvent
		if decode(msg, &d) {
			winner := "nobody"
			if d.WinnerID != "" {
				winner = r.name(d.WinnerID)
			}
			return HeaderStyle.Render(fmt.Sprintf(" game over after %d rounds, %s wins ", d.Rounds, winner))
		}

	case server.MessageType(lobby.EventTypeLobbyDestroyed):
		var d lobby.LobbyDestroyedEvent
		if decode(msg, &d) {
			return WarningStyle.Render(fmt.Sprintf("room %s closed: %s", d.Code, d.Reason))
		}
	}

	return InfoStyle.Render(fmt.Sprintf("[%s] %s", msg.Type, string(msg.Data)))
}

func (r *Renderer) roster(d lobby.RosterUpdatedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "room %s", d.Code)
	for _, p := range d.Players {
		b.WriteString("\n  ")
		marker := " "
		if p.ID == d.HostID {
			marker = "*"
		}
		line := fmt.Sprintf("%s %d %-12s %6d", marker, p.Seat, p.Name, p.Chips)
		if !p.Connected {
			line += " (gone)"
		}
		if p.ID == r.Self {
			line = SuccessStyle.Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func (r *Renderer) roundEnded(d game.RoundEndedEvent) string {
	var b strings.Builder
	if len(d.Board) > 0 {
		fmt.Fprintf(&b, "board %s\n", FormatCards(d.Board))
	}
	for _, h := range d.Showdown {
		fmt.Fprintf(&b, "  %s shows %s (%s)\n", r.name(h.PlayerID), FormatCards(h.HoleCards), h.Hand)
	}
	for i, w := range d.Winners {
		if i > 0 {
			b.WriteString("\n")
		}
		verb := "wins"
		if w.PlayerID == r.Self {
			verb = "win"
		}
		line := fmt.Sprintf("%s %s %d", r.name(w.PlayerID), verb, w.Amount)
		if w.Hand != "" {
			line += " with " + w.Hand
		}
		b.WriteString(SuccessStyle.Render(line))
	}
	return b.String()
}

func (r *Renderer) remember(players []game.PublicPlayer) {
	for _, p := range players {
		r.names[p.ID] = p.Name
	}
}

func (r *Renderer) name(id string) string {
	if id == r.Self {
		return "you"
	}
	if n, ok := r.names[id]; ok {
		return n
	}
	return id
}

// FormatCards renders cards with suit colours
func FormatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		if c.IsRed() {
			parts[i] = RedCardStyle.Render(c.String())
		} else {
			parts[i] = BlackCardStyle.Render(c.String())
		}
	}
	return strings.Join(parts, " ")
}

func decode(msg *server.Message, v any) bool {
	return json.Unmarshal(msg.Data, v) == nil
}
