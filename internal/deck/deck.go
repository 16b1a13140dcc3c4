package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// Size is the number of cards in a standard deck
const Size = 52

// ErrInsufficientCards is returned when a draw asks for more cards than remain
var ErrInsufficientCards = errors.New("insufficient cards in deck")

// Deck is an ordered run of cards consumed from the front. It is never
// replenished; a new round builds a new deck.
type Deck struct {
	cards [Size]Card
	next  int
}

// NewOrderedDeck returns the 52 canonical cards in suit/rank order
func NewOrderedDeck() *Deck {
	d := &Deck{}
	i := 0
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	return d
}

// NewShuffledDeck returns all 52 cards in uniformly random order
func NewShuffledDeck(rng *rand.Rand) *Deck {
	d := NewOrderedDeck()
	d.shuffle(rng)
	return d
}

// NewStackedDeck returns a deck whose first cards are top, in order, followed
// by the remaining cards in canonical order.
func NewStackedDeck(top ...Card) (*Deck, error) {
	d := &Deck{}
	var used uint64
	for i, c := range top {
		if !c.Valid() {
			return nil, fmt.Errorf("stacked card %d: invalid card %v", i, c)
		}
		bit := uint64(1) << uint(c.Index())
		if used&bit != 0 {
			return nil, fmt.Errorf("stacked card %d: duplicate %s", i, c)
		}
		used |= bit
		d.cards[i] = c
	}
	i := len(top)
	for _, c := range NewOrderedDeck().cards {
		if used&(uint64(1)<<uint(c.Index())) == 0 {
			d.cards[i] = c
			i++
		}
	}
	return d, nil
}

// shuffle is Fisher-Yates over the undealt portion
func (d *Deck) shuffle(rng *rand.Rand) {
	for i := Size - 1; i > d.next; i-- {
		j := d.next + rng.IntN(i-d.next+1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the first n cards. Nothing is removed on error.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("draw %d: negative count", n)
	}
	if n > d.Remaining() {
		return nil, fmt.Errorf("draw %d with %d remaining: %w", n, d.Remaining(), ErrInsufficientCards)
	}
	out := make([]Card, n)
	copy(out, d.cards[d.next:d.next+n])
	d.next += n
	return out, nil
}

// Remaining returns the number of undealt cards
func (d *Deck) Remaining() int {
	return Size - d.next
}

// Dealt returns the number of cards drawn so far
func (d *Deck) Dealt() int {
	return d.next
}

// Cards returns a copy of the undealt cards in order
func (d *Deck) Cards() []Card {
	out := make([]Card, d.Remaining())
	copy(out, d.cards[d.next:])
	return out
}
