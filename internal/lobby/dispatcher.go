package lobby

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Dispatcher is the single path by which player commands reach a lobby.
// It tracks which players are connected and which room each is seated in,
// and rejects commands for rooms the sender is not part of. Turn order is
// checked by the round itself.
type Dispatcher struct {
	registry *Registry
	logger   *log.Logger

	mu       sync.Mutex
	known    map[string]bool
	sessions map[string]string
}

// NewDispatcher creates a dispatcher over registry
func NewDispatcher(registry *Registry, logger *log.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   logger.WithPrefix("dispatch"),
		known:    make(map[string]bool),
		sessions: make(map[string]string),
	}
	registry.OnClose(d.lobbyClosed)
	return d
}

// Connect registers a player identity so its commands are accepted
func (d *Dispatcher) Connect(playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[playerID] = true
}

// LobbyOf returns the room the player is seated in, if any
func (d *Dispatcher) LobbyOf(playerID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	code, ok := d.sessions[playerID]
	return code, ok
}

// CreateLobby creates a room (generating a code when code is empty) with
// the sender as host and returns the code.
func (d *Dispatcher) CreateLobby(player Identity, code string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkFree(player.ID); err != nil {
		return "", err
	}
	l, err := d.registry.Create(code, player)
	if err != nil {
		return "", err
	}
	d.sessions[player.ID] = l.Code()
	return l.Code(), nil
}

// JoinLobby seats the sender in an existing room
func (d *Dispatcher) JoinLobby(player Identity, code string) error {
	d.mu.Lock()
	err := d.checkFree(player.ID)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	l, err := d.registry.Get(code)
	if err != nil {
		return err
	}
	if err := l.Join(player); err != nil {
		return err
	}

	d.mu.Lock()
	if !d.known[player.ID] {
		// disconnected while the join was in flight, so Disconnect found no
		// seat to release
		d.mu.Unlock()
		d.logger.Debug("Player left during join", "player", player.ID, "code", l.Code())
		if err := l.Leave(player.ID); err != nil && !errors.Is(err, ErrLobbyClosed) {
			d.logger.Debug("Leave after join failed", "player", player.ID, "code", l.Code(), "error", err)
		}
		return fmt.Errorf("player %s: %w", player.ID, ErrUnknownPlayer)
	}
	defer d.mu.Unlock()
	select {
	case <-l.Done():
		// destroyed between the join and now; lobbyClosed has already run
		// or will find nothing to clear
	default:
		d.sessions[player.ID] = l.Code()
	}
	return nil
}

// StartGame starts the game in the sender's room
func (d *Dispatcher) StartGame(playerID, code string) error {
	l, err := d.route(playerID, code)
	if err != nil {
		return err
	}
	return l.Start(playerID)
}

// Bet routes a bet to the sender's room
func (d *Dispatcher) Bet(playerID, code string, amount int) error {
	l, err := d.route(playerID, code)
	if err != nil {
		return err
	}
	return l.Bet(playerID, amount)
}

// Call routes a call to the sender's room
func (d *Dispatcher) Call(playerID, code string) error {
	l, err := d.route(playerID, code)
	if err != nil {
		return err
	}
	return l.Call(playerID)
}

// Fold routes a fold to the sender's room
func (d *Dispatcher) Fold(playerID, code string) error {
	l, err := d.route(playerID, code)
	if err != nil {
		return err
	}
	return l.Fold(playerID)
}

// Disconnect forgets the player and releases their seat. It never fails;
// a room that has already gone away has nothing left to release.
func (d *Dispatcher) Disconnect(playerID string) {
	d.mu.Lock()
	code, seated := d.sessions[playerID]
	delete(d.sessions, playerID)
	delete(d.known, playerID)
	d.mu.Unlock()

	if !seated {
		return
	}
	l, err := d.registry.Get(code)
	if err != nil {
		return
	}
	if err := l.Leave(playerID); err != nil {
		d.logger.Debug("Leave after disconnect failed", "player", playerID, "code", code, "error", err)
	}
}

// route checks that the sender is known and seated in code
func (d *Dispatcher) route(playerID, code string) (*Lobby, error) {
	code = NormalizeCode(code)

	d.mu.Lock()
	known := d.known[playerID]
	seatedIn, seated := d.sessions[playerID]
	d.mu.Unlock()

	if !known {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrUnknownPlayer)
	}
	if !seated || seatedIn != code {
		if _, err := d.registry.Get(code); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("player %s in %s: %w", playerID, code, ErrNotInLobby)
	}
	return d.registry.Get(code)
}

func (d *Dispatcher) checkFree(playerID string) error {
	if !d.known[playerID] {
		return fmt.Errorf("player %s: %w", playerID, ErrUnknownPlayer)
	}
	if code, ok := d.sessions[playerID]; ok {
		return fmt.Errorf("player %s seated in %s: %w", playerID, code, ErrAlreadyInLobby)
	}
	return nil
}

// lobbyClosed runs on the closing lobby's goroutine
func (d *Dispatcher) lobbyClosed(code string, playerIDs []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range playerIDs {
		if d.sessions[id] == code {
			delete(d.sessions, id)
		}
	}
}
