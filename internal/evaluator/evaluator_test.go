package evaluator

import (
	"testing"

	ph "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerrooms/internal/deck"
	"github.com/lox/pokerrooms/internal/randutil"
)

func eval(t *testing.T, cards string) HandRank {
	t.Helper()
	hr, err := Evaluate(deck.MustParseCards(cards)...)
	require.NoError(t, err, cards)
	return hr
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    string
		category Category
		ranks    string
		label    string
	}{
		{"royal flush", "AsKsQsJsTs9h8h", StraightFlush, "A", "Royal Flush"},
		{"straight flush", "9s8s7s6s5s4h3h", StraightFlush, "9", "Straight Flush"},
		{"steel wheel", "As2s3s4s5sKhQh", StraightFlush, "5", "Straight Flush"},
		{"four of a kind", "AsAhAdAcKs2h3h", FourOfAKind, "AK", "Four of a Kind"},
		{"quads on board use best kicker", "7s7h7d7c2s3hQd", FourOfAKind, "7Q", "Four of a Kind"},
		{"full house", "AsAhAdKsKh2h3h", FullHouse, "AK", "Full House"},
		{"two trips make a full house", "KsKhKd9s9h9d2c", FullHouse, "K9", "Full House"},
		{"trips plus two pairs", "5s5h5d9s9hQdQc", FullHouse, "5Q", "Full House"},
		{"flush", "AsKsQs8s6s4h3h", Flush, "AKQ86", "Flush"},
		{"six card flush keeps top five", "As9s7s5s3s2sKh", Flush, "A9753", "Flush"},
		{"straight", "AsKhQdJcTs9h8h", Straight, "A", "Straight"},
		{"wheel", "As2h3d4c5sKhQd", Straight, "5", "Straight"},
		{"straight beats pairs on board", "6s7h8d9cTs6h7d", Straight, "T", "Straight"},
		{"three of a kind", "AsAhAdKs9c7h5h", ThreeOfAKind, "AK9", "Three of a Kind"},
		{"two pair", "AsAhKdKs9c7h5h", TwoPair, "AK9", "Two Pair"},
		{"three pairs pick best two and kicker", "AsAhKdKsQcQh2d", TwoPair, "AKQ", "Two Pair"},
		{"one pair", "AsAhKdQs9c7h5h", OnePair, "AKQ9", "One Pair"},
		{"high card", "AsJhTd8s6c4h2d", HighCard, "AJT86", "High Card"},
		{"five card hand", "2c3d4h5s7c", HighCard, "75432", "High Card"},
		{"six card hand", "2c2d4h5s7cAh", OnePair, "2A75", "One Pair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr := eval(t, tt.cards)
			assert.Equal(t, tt.category, hr.Category())
			assert.Equal(t, tt.label, hr.String())

			var got string
			for _, r := range hr.Ranks() {
				got += r.String()
			}
			assert.Equal(t, tt.ranks, got)
		})
	}
}

func TestCompareTieBreaks(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"higher category wins", "AsAhKdQs9c7h5h", "AsKhQdJcTs9h8h", -1},
		{"pair kicker decides", "AsAhKd9s7c4h2d", "AcAdQd9h7s4c2h", 1},
		{"fourth kicker decides", "AsAhKdQs9c4h2d", "AcAdKhQc8s4c2h", 1},
		{"fifth card of board plays for both", "2s3hAdAcKsQhJd", "4s5hAdAcKsQhJd", 0},
		{"two pair bottom pair decides", "AsAhKdKs2c3h5d", "AcAdQsQh9c8h7d", 1},
		{"two pair kicker decides", "AsAhKdKsQc3h2d", "AcAdKcKhJc3s2h", 1},
		{"full house compares trips first", "2s2h2dAsAh7c8d", "KsKhKdQsQh3c4d", -1},
		{"full house compares pair second", "KsKhKdQsQh3c4d", "KcKhKdJsJh3c4d", 1},
		{"wheel loses to six high straight", "As2h3d4c5s9hTd", "2s3h4d5c6sKhKd", -1},
		{"flush compares every card", "AsKsQsJs8s2h3d", "AhKhQhJh7h2s3c", 1},
		{"straight flush beats quads", "9s8s7s6s5s5h5d", "AsAhAdAcKs2h3h", 1},
		{"identical straights tie", "AsKhQdJcTs2h3d", "AdKcQhJsTd4h5s", 0},
		{"quads kicker decides", "7s7h7d7cAsKhQd", "7s7h7d7cKsQhJd", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(eval(t, tt.a), eval(t, tt.b)))
			assert.Equal(t, -tt.want, Compare(eval(t, tt.b), eval(t, tt.a)))
		})
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	_, err := Evaluate(deck.MustParseCards("AsKs")...)
	assert.Error(t, err)

	_, err = Evaluate(deck.MustParseCards("AsKsQsJsTs9s8s7s")...)
	assert.Error(t, err)

	_, err = Evaluate(deck.MustParseCards("AsAsQsJsTs")...)
	assert.Error(t, err, "duplicate cards")

	_, err = Evaluate(deck.Card{}, deck.Card{}, deck.Card{}, deck.Card{}, deck.Card{})
	assert.Error(t, err, "zero cards")
}

// TestEvaluateMatchesReferenceEvaluator deals random seven-card pairs and
// checks ordering against an independent implementation.
func TestEvaluateMatchesReferenceEvaluator(t *testing.T) {
	rng := randutil.New(20240601)
	for i := 0; i < 3000; i++ {
		d := deck.NewShuffledDeck(rng)
		cards, err := d.Draw(9)
		require.NoError(t, err)

		board := cards[4:]
		a := append([]deck.Card{cards[0], cards[1]}, board...)
		b := append([]deck.Card{cards[2], cards[3]}, board...)

		got := Compare(MustEvaluate(a...), MustEvaluate(b...))
		want := sign(int(referenceScore(t, a)) - int(referenceScore(t, b)))
		if got != want {
			t.Fatalf("hand %d: %s vs %s: got %d, reference %d (%s vs %s)",
				i, deck.FormatCards(a), deck.FormatCards(b), got, want,
				MustEvaluate(a...), MustEvaluate(b...))
		}
	}
}

func referenceScore(t *testing.T, cards []deck.Card) int16 {
	t.Helper()
	var hand [7]ph.Card
	for i, c := range cards {
		hand[i] = toReference(t, c)
	}
	return ph.Eval7(&hand)
}

func toReference(t *testing.T, c deck.Card) ph.Card {
	t.Helper()
	var s ph.Suit
	switch c.Suit {
	case deck.Clubs:
		s = ph.Club
	case deck.Diamonds:
		s = ph.Diamond
	case deck.Hearts:
		s = ph.Heart
	default:
		s = ph.Spade
	}
	r := ph.Rank(c.Rank)
	if c.Rank == deck.Ace {
		r = ph.Rank(1)
	}
	card, err := ph.MakeCard(s, r)
	require.NoError(t, err)
	return card
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
