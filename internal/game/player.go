package game

import "github.com/lox/pokerrooms/internal/deck"

const (
	// MinPlayers and MaxPlayers bound the seats in a round
	MinPlayers = 2
	MaxPlayers = 10

	// StartingChips is the stake every player receives on join
	StartingChips = 1000

	holeCardCount = 2
)

// Player is a seated participant. The lobby and the round share the same
// pointer so chip changes are visible to both.
type Player struct {
	ID        string
	Name      string
	Avatar    string
	Chips     int
	Folded    bool
	Connected bool
	HoleCards []deck.Card
	// Seat is the player's index at the table, which can differ from the
	// position in a round when broke players sit out.
	Seat int

	actedThisStreet bool
}

// NewPlayer creates a connected player with the default starting stake
func NewPlayer(id, name, avatar string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		Chips:     StartingChips,
		Connected: true,
	}
}

// InRound returns true if the player can still win the current pot
func (p *Player) InRound() bool {
	return !p.Folded
}

// PublicPlayer is the view of a player every participant may see
type PublicPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Seat      int    `json:"seat"`
	Chips     int    `json:"chips"`
	Folded    bool   `json:"folded"`
	Connected bool   `json:"connected"`
}

// Public returns the player's public view. Hole cards are never included.
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Seat:      p.Seat,
		Chips:     p.Chips,
		Folded:    p.Folded,
		Connected: p.Connected,
	}
}

// PublicPlayers returns public views in seating order
func PublicPlayers(players []*Player) []PublicPlayer {
	out := make([]PublicPlayer, len(players))
	for i, p := range players {
		out[i] = p.Public()
	}
	return out
}

// SeatPlayers numbers players by their position in the table
func SeatPlayers(players []*Player) {
	for i, p := range players {
		p.Seat = i
	}
}
