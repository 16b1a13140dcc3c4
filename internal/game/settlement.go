package game

import (
	"fmt"
	"slices"

	"github.com/lox/pokerrooms/internal/evaluator"
)

// settle awards the pot and closes the round. Without a showdown the sole
// remaining player takes everything and no cards are revealed.
func (r *Round) settle(showdown bool) ([]Event, error) {
	if showdown {
		r.street = Showdown
	}

	result := &Result{
		Code:        r.code,
		Round:       r.number,
		Pot:         r.pot,
		Board:       r.Board(),
		Uncontested: !showdown,
	}

	if !showdown {
		idx := r.nextLive(-1)
		p := r.players[idx]
		p.Chips += r.pot
		result.Winners = []Winner{{PlayerID: p.ID, Amount: r.pot}}
	} else {
		winners, hands, err := r.showdown()
		if err != nil {
			return nil, err
		}
		result.Showdown = hands
		result.Winners = r.split(winners, hands)
	}

	r.pot = 0
	r.street = Settled
	r.result = result

	return []Event{RoundEndedEvent{
		Round:       result.Round,
		Pot:         result.Pot,
		Board:       result.Board,
		Winners:     result.Winners,
		Showdown:    result.Showdown,
		Uncontested: result.Uncontested,
		Players:     PublicPlayers(r.players),
	}}, nil
}

// showdown evaluates every live hand and returns the seats holding the best
// one, in seat order, alongside the revealed hands.
func (r *Round) showdown() ([]int, []ShowdownHand, error) {
	var (
		best    evaluator.HandRank
		winners []int
		hands   []ShowdownHand
	)
	for i, p := range r.players {
		if !p.InRound() {
			continue
		}
		rank, err := evaluator.Evaluate(append(slices.Clone(p.HoleCards), r.board...)...)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluating %s: %w: %w", p.ID, ErrInternal, err)
		}
		hands = append(hands, ShowdownHand{
			PlayerID:  p.ID,
			HoleCards: slices.Clone(p.HoleCards),
			Hand:      rank.String(),
		})

		switch c := evaluator.Compare(rank, best); {
		case len(winners) == 0 || c > 0:
			best = rank
			winners = []int{i}
		case c == 0:
			winners = append(winners, i)
		}
	}
	if len(winners) == 0 {
		return nil, nil, fmt.Errorf("showdown with no live players: %w", ErrInternal)
	}
	return winners, hands, nil
}

// split divides the pot evenly between the winning seats. Any odd chips go
// to the lowest seat among them.
func (r *Round) split(seats []int, hands []ShowdownHand) []Winner {
	share := r.pot / len(seats)
	remainder := r.pot % len(seats)

	handOf := make(map[string]string, len(hands))
	for _, h := range hands {
		handOf[h.PlayerID] = h.Hand
	}

	out := make([]Winner, 0, len(seats))
	for i, seat := range seats {
		amount := share
		if i == 0 {
			amount += remainder
		}
		p := r.players[seat]
		p.Chips += amount
		out = append(out, Winner{PlayerID: p.ID, Amount: amount, Hand: handOf[p.ID]})
	}
	return out
}
