package game

import "fmt"

// Street is the round's position in the state machine
type Street int

const (
	PreFlop Street = iota
	Flop
	Turn
	River
	Showdown
	Settled
)

var streetNames = [...]string{"preflop", "flop", "turn", "river", "showdown", "settled"}

func (s Street) String() string {
	if s < PreFlop || s > Settled {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return streetNames[s]
}

// MarshalText encodes the street by name
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a street name
func (s *Street) UnmarshalText(text []byte) error {
	for i, name := range streetNames {
		if name == string(text) {
			*s = Street(i)
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", text)
}

// IsBetting reports whether players may act on this street
func (s Street) IsBetting() bool {
	return s >= PreFlop && s <= River
}

// boardSize is the number of community cards visible on a betting street
func (s Street) boardSize() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown, Settled:
		return 5
	default:
		return 0
	}
}
