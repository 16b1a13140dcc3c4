package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/lox/pokerrooms/internal/deck"
)

// Category is the class of a five-card poker hand
type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryNames = [...]string{
	HighCard:      "High Card",
	OnePair:       "One Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
}

// String returns the human-readable category name
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// HandRank is a packed hand strength. The category sits above bit 20 and
// the five tie-break ranks follow as 4-bit nibbles in significance order,
// so comparing two HandRanks as integers compares the hands.
type HandRank uint32

const categoryShift = 20

// Category returns the hand class
func (hr HandRank) Category() Category {
	return Category(hr >> categoryShift)
}

// Ranks returns the tie-break ranks in significance order
func (hr HandRank) Ranks() []deck.Rank {
	out := make([]deck.Rank, 0, 5)
	for shift := 16; shift >= 0; shift -= 4 {
		r := deck.Rank((hr >> uint(shift)) & 0xF)
		if r == 0 {
			break
		}
		out = append(out, r)
	}
	return out
}

// String describes the hand, e.g. "Full House" or "Royal Flush"
func (hr HandRank) String() string {
	cat := hr.Category()
	if cat == StraightFlush && len(hr.Ranks()) > 0 && hr.Ranks()[0] == deck.Ace {
		return "Royal Flush"
	}
	return cat.String()
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 for an exact tie
func Compare(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func pack(cat Category, ranks ...deck.Rank) HandRank {
	hr := HandRank(cat) << categoryShift
	shift := 16
	for _, r := range ranks {
		if shift < 0 {
			break
		}
		hr |= HandRank(r) << uint(shift)
		shift -= 4
	}
	return hr
}

// Evaluate returns the rank of the best five-card hand that can be made
// from 5 to 7 distinct cards.
func Evaluate(cards ...deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate needs 5 to 7 cards, got %d", len(cards))
	}

	var (
		counts    [deck.Ace + 1]int
		suitMasks [4]uint16
		rankMask  uint16
		seen      uint64
	)
	for _, c := range cards {
		if !c.Valid() {
			return 0, fmt.Errorf("invalid card %v", c)
		}
		bit := uint64(1) << uint(c.Index())
		if seen&bit != 0 {
			return 0, fmt.Errorf("duplicate card %s", c)
		}
		seen |= bit
		counts[c.Rank]++
		suitMasks[c.Suit] |= 1 << c.Rank
		rankMask |= 1 << c.Rank
	}

	flushMask := uint16(0)
	for _, m := range suitMasks {
		if bits.OnesCount16(m) >= 5 {
			flushMask = m
			break
		}
	}

	if flushMask != 0 {
		if high := straightHigh(flushMask); high != 0 {
			return pack(StraightFlush, high), nil
		}
	}

	// groups of equal rank, highest rank first within each size
	var quads, trips, pairs []deck.Rank
	for r := deck.Ace; r >= deck.Two; r-- {
		switch counts[r] {
		case 4:
			quads = append(quads, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		}
	}

	if len(quads) > 0 {
		return pack(FourOfAKind, quads[0], highestExcept(rankMask, quads[0])), nil
	}

	if len(trips) > 0 {
		var pair deck.Rank
		if len(trips) > 1 {
			pair = trips[1]
		}
		if len(pairs) > 0 && pairs[0] > pair {
			pair = pairs[0]
		}
		if pair != 0 {
			return pack(FullHouse, trips[0], pair), nil
		}
	}

	if flushMask != 0 {
		return pack(Flush, topRanks(flushMask, 5)...), nil
	}

	if high := straightHigh(rankMask); high != 0 {
		return pack(Straight, high), nil
	}

	if len(trips) > 0 {
		kickers := topRanks(rankMask&^(1<<trips[0]), 2)
		return pack(ThreeOfAKind, append([]deck.Rank{trips[0]}, kickers...)...), nil
	}

	if len(pairs) >= 2 {
		hi, lo := pairs[0], pairs[1]
		return pack(TwoPair, hi, lo, highestExcept(rankMask, hi, lo)), nil
	}

	if len(pairs) == 1 {
		kickers := topRanks(rankMask&^(1<<pairs[0]), 3)
		return pack(OnePair, append([]deck.Rank{pairs[0]}, kickers...)...), nil
	}

	return pack(HighCard, topRanks(rankMask, 5)...), nil
}

// MustEvaluate evaluates and panics on invalid input (for tests)
func MustEvaluate(cards ...deck.Card) HandRank {
	hr, err := Evaluate(cards...)
	if err != nil {
		panic(err)
	}
	return hr
}

// straightHigh returns the top card of the best straight in mask, treating
// the ace as low for the wheel, or 0 when there is none.
func straightHigh(mask uint16) deck.Rank {
	if mask&(1<<deck.Ace) != 0 {
		mask |= 1 << 1
	}
	for high := deck.Ace; high >= deck.Five; high-- {
		run := uint16(0x1F) << (high - 4)
		if mask&run == run {
			return high
		}
	}
	return 0
}

// topRanks returns the n highest ranks present in mask
func topRanks(mask uint16, n int) []deck.Rank {
	out := make([]deck.Rank, 0, n)
	for r := deck.Ace; r >= deck.Two && len(out) < n; r-- {
		if mask&(1<<r) != 0 {
			out = append(out, r)
		}
	}
	return out
}

func highestExcept(mask uint16, used ...deck.Rank) deck.Rank {
	for _, r := range used {
		mask &^= 1 << r
	}
	ranks := topRanks(mask, 1)
	if len(ranks) == 0 {
		return 0
	}
	return ranks[0]
}
