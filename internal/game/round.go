package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/pokerrooms/internal/deck"
)

// Round is one deal of cards for a lobby, from hole cards to settlement.
// It is not safe for concurrent use; the owning lobby serializes access.
type Round struct {
	code    string
	number  int
	players []*Player
	deck    *deck.Deck
	board   []deck.Card

	street     Street
	pot        int
	currentBet int
	turn       int
	actions    int

	result *Result
}

// Result summarises a settled round
type Result struct {
	Code        string
	Round       int
	Pot         int
	Board       []deck.Card
	Winners     []Winner
	Showdown    []ShowdownHand
	Uncontested bool
}

// Snapshot is a copy of the public round state
type Snapshot struct {
	Code              string         `json:"roomCode"`
	Round             int            `json:"round"`
	Street            Street         `json:"street"`
	Board             []deck.Card    `json:"board"`
	Pot               int            `json:"pot"`
	CurrentBet        int            `json:"currentBet"`
	TurnIndex         int            `json:"turnIndex"`
	TurnPlayer        string         `json:"turnPlayer,omitempty"`
	ActionsThisStreet int            `json:"actionsThisStreet"`
	DeckRemaining     int            `json:"deckRemaining"`
	Players           []PublicPlayer `json:"players"`
}

// NewRound shuffles a fresh deck, deals two hole cards to every player in
// seating order and gives the turn to the first seat.
func NewRound(code string, number int, players []*Player, rng *rand.Rand) (*Round, []Event, error) {
	return newRound(code, number, players, func() *deck.Deck { return deck.NewShuffledDeck(rng) })
}

func newRound(code string, number int, players []*Player, newDeck func() *deck.Deck) (*Round, []Event, error) {
	if len(players) < MinPlayers {
		return nil, nil, fmt.Errorf("%d players: %w", len(players), ErrTooFewPlayers)
	}
	if len(players) > MaxPlayers {
		return nil, nil, fmt.Errorf("%d players: %w", len(players), ErrTooManyPlayers)
	}

	connected := 0
	for _, p := range players {
		if p.Connected {
			connected++
		}
	}
	if connected < MinPlayers {
		return nil, nil, fmt.Errorf("%d connected players: %w", connected, ErrTooFewPlayers)
	}

	r := &Round{
		code:    code,
		number:  number,
		players: players,
		deck:    newDeck(),
		board:   make([]deck.Card, 0, 5),
		street:  PreFlop,
	}
	for _, p := range players {
		p.Folded = !p.Connected
		p.actedThisStreet = false
		p.HoleCards = nil
	}

	events := []Event{RoundStartedEvent{
		Code:    code,
		Round:   number,
		Players: PublicPlayers(players),
		Pot:     0,
	}}

	for _, p := range players {
		if p.Folded {
			continue
		}
		cards, err := r.deck.Draw(holeCardCount)
		if err != nil {
			return nil, nil, fmt.Errorf("dealing to %s: %w: %w", p.ID, ErrInternal, err)
		}
		p.HoleCards = cards
		events = append(events, HoleCardsEvent{PlayerID: p.ID, Round: number, Cards: cards})
	}

	r.turn = r.nextLive(-1)
	events = append(events, r.turnEvent())
	return r, events, nil
}

// Code returns the owning lobby's room code
func (r *Round) Code() string { return r.code }

// Number returns the round's sequence number within the game
func (r *Round) Number() int { return r.number }

// Street returns the current state
func (r *Round) Street() Street { return r.street }

// Pot returns the chips at stake
func (r *Round) Pot() int { return r.pot }

// CurrentBet returns the amount a call must pay
func (r *Round) CurrentBet() int { return r.currentBet }

// Board returns a copy of the community cards
func (r *Round) Board() []deck.Card {
	return append([]deck.Card(nil), r.board...)
}

// TurnPlayer returns the id of the player who may act, or "" once betting ends
func (r *Round) TurnPlayer() string {
	if !r.street.IsBetting() {
		return ""
	}
	return r.players[r.turn].ID
}

// IsSettled reports whether the pot has been awarded
func (r *Round) IsSettled() bool { return r.street == Settled }

// Result returns the settlement summary, or nil before settlement
func (r *Round) Result() *Result { return r.result }

// Snapshot returns a copy of the public state
func (r *Round) Snapshot() Snapshot {
	return Snapshot{
		Code:              r.code,
		Round:             r.number,
		Street:            r.street,
		Board:             r.Board(),
		Pot:               r.pot,
		CurrentBet:        r.currentBet,
		TurnIndex:         r.turnSeat(),
		TurnPlayer:        r.TurnPlayer(),
		ActionsThisStreet: r.actions,
		DeckRemaining:     r.deck.Remaining(),
		Players:           PublicPlayers(r.players),
	}
}

// Bet moves amount from the acting player into the pot and makes it the
// amount to call.
func (r *Round) Bet(playerID string, amount int) ([]Event, error) {
	p, err := r.actor(playerID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("bet %d: %w", amount, ErrInvalidAmount)
	}
	if amount > p.Chips {
		return nil, fmt.Errorf("bet %d with %d chips: %w", amount, p.Chips, ErrInsufficientChips)
	}

	p.Chips -= amount
	r.pot += amount
	r.currentBet = amount
	return r.afterAction(p, "bet", amount)
}

// Call pays the current bet. Against a current bet of zero it is a check.
func (r *Round) Call(playerID string) ([]Event, error) {
	p, err := r.actor(playerID)
	if err != nil {
		return nil, err
	}
	if p.Chips < r.currentBet {
		return nil, fmt.Errorf("call %d with %d chips: %w", r.currentBet, p.Chips, ErrInsufficientChips)
	}

	amount := r.currentBet
	p.Chips -= amount
	r.pot += amount
	return r.afterAction(p, "call", amount)
}

// Fold gives up the acting player's claim on the pot
func (r *Round) Fold(playerID string) ([]Event, error) {
	p, err := r.actor(playerID)
	if err != nil {
		return nil, err
	}

	p.Folded = true
	p.actedThisStreet = true
	r.actions++

	events := []Event{PlayerFoldedEvent{PlayerID: p.ID}}
	more, err := r.progress()
	return append(events, more...), err
}

// Abandon handles a player whose connection dropped: they are folded for
// the rest of the round whether or not it is their turn, and the round
// moves on without waiting for them.
func (r *Round) Abandon(playerID string) ([]Event, error) {
	idx := r.seatOf(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("abandon %s: %w", playerID, ErrUnknownPlayer)
	}
	p := r.players[idx]
	p.Connected = false
	if p.Folded || !r.street.IsBetting() {
		return nil, nil
	}

	p.Folded = true
	if idx == r.turn {
		p.actedThisStreet = true
		r.actions++
	}

	events := []Event{PlayerFoldedEvent{PlayerID: p.ID, Disconnected: true}}
	more, err := r.progress()
	return append(events, more...), err
}

// actor resolves the player for a betting action and checks turn order
func (r *Round) actor(playerID string) (*Player, error) {
	idx := r.seatOf(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrUnknownPlayer)
	}
	if !r.street.IsBetting() {
		return nil, fmt.Errorf("%s: %w", r.street, ErrRoundOver)
	}
	if idx != r.turn {
		return nil, fmt.Errorf("seat %d acting on seat %d's turn: %w", idx, r.turn, ErrNotYourTurn)
	}
	return r.players[idx], nil
}

func (r *Round) afterAction(p *Player, action string, amount int) ([]Event, error) {
	p.actedThisStreet = true
	r.actions++

	events := []Event{
		PotUpdatedEvent{
			PlayerID:   p.ID,
			Action:     action,
			Amount:     amount,
			Pot:        r.pot,
			CurrentBet: r.currentBet,
		},
		ChipsUpdatedEvent{PlayerID: p.ID, Chips: p.Chips},
	}
	more, err := r.progress()
	return append(events, more...), err
}

// progress settles, resolves the street or moves the turn pointer,
// whichever the state now calls for.
func (r *Round) progress() ([]Event, error) {
	if r.liveCount() == 1 {
		return r.settle(false)
	}
	if r.streetComplete() {
		return r.resolveStreet()
	}

	cur := r.players[r.turn]
	if cur.Folded || cur.actedThisStreet {
		r.turn = r.nextLive(r.turn)
		return []Event{r.turnEvent()}, nil
	}
	return nil, nil
}

// streetComplete is true once every player still in the round has acted
func (r *Round) streetComplete() bool {
	for _, p := range r.players {
		if p.InRound() && !p.actedThisStreet {
			return false
		}
	}
	return true
}

func (r *Round) resolveStreet() ([]Event, error) {
	r.actions = 0
	r.currentBet = 0
	for _, p := range r.players {
		p.actedThisStreet = false
	}

	if len(r.board) == 5 {
		return r.settle(true)
	}

	next := r.street + 1
	cards, err := r.deck.Draw(next.boardSize() - len(r.board))
	if err != nil {
		return nil, fmt.Errorf("revealing %s: %w: %w", next, ErrInternal, err)
	}
	r.board = append(r.board, cards...)
	r.street = next
	r.turn = r.nextLive(-1)

	return []Event{
		StreetAdvancedEvent{
			Street:   next,
			NewCards: cards,
			Board:    r.Board(),
			Pot:      r.pot,
		},
		r.turnEvent(),
	}, nil
}

func (r *Round) turnEvent() TurnChangedEvent {
	return TurnChangedEvent{
		PlayerID:   r.players[r.turn].ID,
		Seat:       r.turnSeat(),
		Street:     r.street,
		CurrentBet: r.currentBet,
		Pot:        r.pot,
	}
}

// nextLive returns the first seat after from (wrapping) that has not folded
// turnSeat is the table seat of the player to act
func (r *Round) turnSeat() int {
	if r.turn < 0 || r.turn >= len(r.players) {
		return -1
	}
	return r.players[r.turn].Seat
}

func (r *Round) nextLive(from int) int {
	n := len(r.players)
	for i := 1; i <= n; i++ {
		idx := (from + i + n) % n
		if r.players[idx].InRound() {
			return idx
		}
	}
	return from
}

func (r *Round) liveCount() int {
	n := 0
	for _, p := range r.players {
		if p.InRound() {
			n++
		}
	}
	return n
}

func (r *Round) seatOf(playerID string) int {
	for i, p := range r.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}
