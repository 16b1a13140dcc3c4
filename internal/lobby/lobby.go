package lobby

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/history"
)

// Config controls every lobby created by a registry
type Config struct {
	StartingChips int
	MinPlayers    int
	MaxPlayers    int
	SettleDelay   time.Duration
	CodeLength    int
	Seed          int64
}

// DefaultConfig returns the standard table settings
func DefaultConfig() Config {
	return Config{
		StartingChips: game.StartingChips,
		MinPlayers:    game.MinPlayers,
		MaxPlayers:    game.MaxPlayers,
		SettleDelay:   5 * time.Second,
		CodeLength:    DefaultCodeLength,
	}
}

// Identity is what the transport knows about a player at join time
type Identity struct {
	ID     string
	Name   string
	Avatar string
}

// Summary is the public listing of a lobby
type Summary struct {
	Code    string `json:"roomCode"`
	HostID  string `json:"hostId"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
	Round   int    `json:"round"`
}

// State is a consistent view of a lobby taken between commands
type State struct {
	Code    string
	HostID  string
	Started bool
	Round   int
	Players []game.PublicPlayer
	Current *game.Snapshot
}

type commandKind int

const (
	cmdAnnounce commandKind = iota
	cmdJoin
	cmdStart
	cmdBet
	cmdCall
	cmdFold
	cmdLeave
	cmdNextRound
	cmdState
)

var commandNames = [...]string{"announce", "join", "start", "bet", "call", "fold", "leave", "next_round", "state"}

func (k commandKind) String() string { return commandNames[k] }

type command struct {
	kind     commandKind
	player   Identity
	amount   int
	schedule uint64
	state    *State
	reply    chan error
}

// Lobby is one room. All of its state is owned by a single goroutine that
// applies commands in arrival order; nothing outside that goroutine touches
// players, the host or the round.
type Lobby struct {
	code     string
	cfg      Config
	clock    quartz.Clock
	out      Broadcaster
	recorder history.Recorder
	rng      *rand.Rand
	logger   *log.Logger
	onClose  func(code string, playerIDs []string)

	commands chan command
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once

	// actor state
	hostID      string
	players     []*game.Player
	started     bool
	round       *game.Round
	roundNumber int
	timer       *quartz.Timer
	schedule    uint64
	destroyed   bool

	mu      sync.RWMutex
	summary Summary
}

func newLobby(code string, host Identity, cfg Config, deps lobbyDeps) *Lobby {
	l := &Lobby{
		code:     code,
		cfg:      cfg,
		clock:    deps.clock,
		out:      deps.out,
		recorder: deps.recorder,
		rng:      deps.rng,
		logger:   deps.logger.WithPrefix("lobby").With("code", code),
		onClose:  deps.onClose,
		commands: make(chan command, 64),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		hostID:   host.ID,
		players:  []*game.Player{newSeat(host, cfg)},
	}
	l.refreshSummary()

	// the first thing a room does is tell its host it exists
	l.commands <- command{kind: cmdAnnounce}
	go l.run()
	return l
}

func newSeat(id Identity, cfg Config) *game.Player {
	p := game.NewPlayer(id.ID, id.Name, id.Avatar)
	p.Chips = cfg.StartingChips
	return p
}

// Code returns the room code
func (l *Lobby) Code() string { return l.code }

// Summary returns the listing as of the last applied command
func (l *Lobby) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.summary
}

// Join seats a new player at the end of the seating order
func (l *Lobby) Join(player Identity) error {
	return l.submit(command{kind: cmdJoin, player: player})
}

// Start begins the game. Only the host may start it.
func (l *Lobby) Start(playerID string) error {
	return l.submit(command{kind: cmdStart, player: Identity{ID: playerID}})
}

// Bet applies a bet for playerID
func (l *Lobby) Bet(playerID string, amount int) error {
	return l.submit(command{kind: cmdBet, player: Identity{ID: playerID}, amount: amount})
}

// Call applies a call (or check) for playerID
func (l *Lobby) Call(playerID string) error {
	return l.submit(command{kind: cmdCall, player: Identity{ID: playerID}})
}

// Fold applies a fold for playerID
func (l *Lobby) Fold(playerID string) error {
	return l.submit(command{kind: cmdFold, player: Identity{ID: playerID}})
}

// Leave handles a dropped connection
func (l *Lobby) Leave(playerID string) error {
	return l.submit(command{kind: cmdLeave, player: Identity{ID: playerID}})
}

// State returns a copy of the lobby state after every previously submitted
// command has been applied.
func (l *Lobby) State() (State, error) {
	var st State
	err := l.submit(command{kind: cmdState, state: &st})
	return st, err
}

// Stop shuts the actor down without notifying players and waits for it
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
	<-l.exited
}

// Done is closed once the lobby stops accepting commands
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) submit(cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case l.commands <- cmd:
	case <-l.done:
		return fmt.Errorf("%s: %w", l.code, ErrLobbyClosed)
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-l.exited:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return fmt.Errorf("%s: %w", l.code, ErrLobbyClosed)
		}
	}
}

// enqueue is used by timers; it never waits on a stopped lobby
func (l *Lobby) enqueue(cmd command) {
	select {
	case l.commands <- cmd:
	case <-l.done:
	}
}

func (l *Lobby) run() {
	defer close(l.exited)
	defer l.stopTimer()

	for {
		select {
		case cmd := <-l.commands:
			err := l.handle(cmd)
			if cmd.reply != nil {
				cmd.reply <- err
			}
			if l.destroyed {
				return
			}
		case <-l.done:
			l.logger.Debug("Actor stopped")
			return
		}
	}
}

// handle applies one command. Validation errors go back to the sender and
// leave the lobby as it was; internal errors and panics tear the lobby down.
func (l *Lobby) handle(cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic applying command", "command", cmd.kind, "panic", r)
			err = fmt.Errorf("%s: panic: %v: %w", cmd.kind, r, game.ErrInternal)
			l.abort(err)
		}
	}()

	switch cmd.kind {
	case cmdAnnounce:
		l.publish([]game.Event{
			LobbyCreatedEvent{Code: l.code, PlayerID: l.hostID},
			l.rosterEvent(),
		})
	case cmdJoin:
		err = l.handleJoin(cmd.player)
	case cmdStart:
		err = l.handleStart(cmd.player.ID)
	case cmdBet, cmdCall, cmdFold:
		err = l.handleAction(cmd)
	case cmdLeave:
		err = l.handleLeave(cmd.player.ID)
	case cmdNextRound:
		err = l.handleNextRound(cmd.schedule)
	case cmdState:
		*cmd.state = l.state()
	}

	if errors.Is(err, game.ErrInternal) && !l.destroyed {
		l.logger.Error("Round failed", "command", cmd.kind, "error", err)
		l.abort(err)
	}
	if !l.destroyed {
		l.refreshSummary()
	}
	return err
}

func (l *Lobby) handleJoin(id Identity) error {
	if l.seat(id.ID) >= 0 {
		return fmt.Errorf("join %s: %w", l.code, ErrAlreadySeated)
	}
	if l.started {
		return fmt.Errorf("join %s: %w", l.code, ErrGameAlreadyStarted)
	}
	if len(l.players) >= l.cfg.MaxPlayers {
		return fmt.Errorf("join %s with %d players: %w", l.code, len(l.players), ErrLobbyFull)
	}

	p := newSeat(id, l.cfg)
	p.Seat = len(l.players)
	l.players = append(l.players, p)
	l.logger.Info("Player joined", "player", id.ID, "name", id.Name, "seat", p.Seat)

	l.publish([]game.Event{
		JoinConfirmedEvent{Code: l.code, PlayerID: p.ID, Seat: p.Seat, Chips: p.Chips},
		l.rosterEvent(),
	})
	return nil
}

func (l *Lobby) handleStart(playerID string) error {
	if l.seat(playerID) < 0 {
		return fmt.Errorf("start %s: %w", l.code, ErrNotInLobby)
	}
	if l.started {
		return fmt.Errorf("start %s: %w", l.code, ErrGameAlreadyStarted)
	}
	if playerID != l.hostID {
		return fmt.Errorf("start %s by %s: %w", l.code, playerID, ErrNotHost)
	}
	if n := len(l.players); n < l.cfg.MinPlayers {
		return fmt.Errorf("start %s with %d players: %w", l.code, n, game.ErrTooFewPlayers)
	}
	if n := len(l.players); n > l.cfg.MaxPlayers {
		return fmt.Errorf("start %s with %d players: %w", l.code, n, game.ErrTooManyPlayers)
	}

	l.roundNumber = 0
	if err := l.beginRound(); err != nil {
		return err
	}
	l.started = true
	l.logger.Info("Game started", "players", len(l.players))
	return nil
}

// beginRound deals a new round to every seated player who still has chips
func (l *Lobby) beginRound() error {
	var funded []*game.Player
	for _, p := range l.players {
		if p.Chips > 0 {
			funded = append(funded, p)
		}
	}

	round, events, err := game.NewRound(l.code, l.roundNumber+1, funded, l.rng)
	if err != nil {
		return err
	}
	l.round = round
	l.roundNumber++
	l.publish(events)
	return nil
}

func (l *Lobby) handleAction(cmd command) error {
	playerID := cmd.player.ID
	if l.seat(playerID) < 0 {
		return fmt.Errorf("%s in %s: %w", cmd.kind, l.code, ErrNotInLobby)
	}
	if l.round == nil {
		return fmt.Errorf("%s in %s: %w", cmd.kind, l.code, ErrGameNotStarted)
	}

	var (
		events []game.Event
		err    error
	)
	switch cmd.kind {
	case cmdBet:
		events, err = l.round.Bet(playerID, cmd.amount)
	case cmdCall:
		events, err = l.round.Call(playerID)
	case cmdFold:
		events, err = l.round.Fold(playerID)
	}
	if err != nil {
		return err
	}

	l.publish(events)
	l.afterRoundEvents()
	return nil
}

func (l *Lobby) handleLeave(playerID string) error {
	idx := l.seat(playerID)
	if idx < 0 {
		return fmt.Errorf("leave %s: %w", l.code, ErrNotInLobby)
	}
	p := l.players[idx]
	l.logger.Info("Player left", "player", playerID, "started", l.started)

	if !l.started {
		l.players = slices.Delete(l.players, idx, idx+1)
		game.SeatPlayers(l.players)
		if len(l.players) == 0 {
			l.destroy("empty")
			return nil
		}
		l.handOverHost()
		l.publish([]game.Event{l.rosterEvent()})
		return nil
	}

	p.Connected = false
	if l.round != nil && !l.round.IsSettled() && l.inRound(playerID) {
		events, err := l.round.Abandon(playerID)
		if err != nil {
			return err
		}
		l.publish(events)
	}

	if l.connectedCount() == 0 {
		l.destroy("empty")
		return nil
	}
	l.publish([]game.Event{l.rosterEvent()})
	l.afterRoundEvents()
	return nil
}

// afterRoundEvents schedules the next round once the current one settles.
// The timer only enqueues a command, so the lobby is never blocked on it.
func (l *Lobby) afterRoundEvents() {
	if l.round == nil || !l.round.IsSettled() || l.timer != nil {
		return
	}
	if result := l.round.Result(); result != nil {
		l.record(*result)
	}

	l.schedule++
	schedule := l.schedule
	l.timer = l.clock.AfterFunc(l.cfg.SettleDelay, func() {
		l.enqueue(command{kind: cmdNextRound, schedule: schedule})
	}, "lobby", "next_round")
}

func (l *Lobby) handleNextRound(schedule uint64) error {
	if schedule != l.schedule || l.timer == nil {
		return nil
	}
	l.timer = nil

	l.purgeDisconnected()
	if len(l.players) == 0 {
		l.destroy("empty")
		return nil
	}
	l.handOverHost()

	funded := 0
	var leader *game.Player
	for _, p := range l.players {
		if p.Chips > 0 {
			funded++
		}
		if leader == nil || p.Chips > leader.Chips {
			leader = p
		}
	}
	if funded < l.cfg.MinPlayers {
		l.endGame(leader)
		return nil
	}

	l.publish([]game.Event{l.rosterEvent()})
	return l.beginRound()
}

// endGame returns the lobby to waiting with fresh stakes for a rematch
func (l *Lobby) endGame(leader *game.Player) {
	ev := GameOverEvent{
		Code:    l.code,
		Rounds:  l.roundNumber,
		Players: game.PublicPlayers(l.players),
	}
	if leader != nil {
		ev.WinnerID = leader.ID
	}
	l.logger.Info("Game over", "rounds", l.roundNumber, "winner", ev.WinnerID)

	l.started = false
	l.round = nil
	l.roundNumber = 0
	for _, p := range l.players {
		p.Chips = l.cfg.StartingChips
		p.Folded = false
		p.HoleCards = nil
	}
	l.publish([]game.Event{ev, l.rosterEvent()})
}

func (l *Lobby) purgeDisconnected() {
	l.players = slices.DeleteFunc(l.players, func(p *game.Player) bool {
		if !p.Connected {
			l.logger.Debug("Removing disconnected player", "player", p.ID)
		}
		return !p.Connected
	})
	game.SeatPlayers(l.players)
}

// handOverHost passes host to the earliest seat when the host is gone
func (l *Lobby) handOverHost() {
	if l.seat(l.hostID) >= 0 || len(l.players) == 0 {
		return
	}
	l.logger.Info("Host handed over", "from", l.hostID, "to", l.players[0].ID)
	l.hostID = l.players[0].ID
}

// abort tells everyone the round could not continue and destroys the lobby
func (l *Lobby) abort(cause error) {
	if l.destroyed {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic while aborting", "panic", r)
			l.finish("internal error")
		}
	}()

	l.publish([]game.Event{RoundAbortedEvent{
		Code:   l.code,
		Round:  l.roundNumber,
		Reason: "internal error",
	}})
	l.logger.Error("Lobby aborted", "error", cause)
	l.destroy("internal error")
}

func (l *Lobby) destroy(reason string) {
	l.publish([]game.Event{LobbyDestroyedEvent{Code: l.code, Reason: reason}})
	l.finish(reason)
}

// finish stops the actor and releases the code and its players
func (l *Lobby) finish(reason string) {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.stopTimer()
	l.stopOnce.Do(func() { close(l.done) })
	l.logger.Info("Lobby destroyed", "reason", reason)

	if l.onClose != nil {
		ids := make([]string, len(l.players))
		for i, p := range l.players {
			ids[i] = p.ID
		}
		l.onClose(l.code, ids)
	}
}

func (l *Lobby) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// record hands a settled round to the recorder without holding up the room
func (l *Lobby) record(result game.Result) {
	if l.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.recorder.Record(ctx, result); err != nil {
			l.logger.Warn("Failed to record round", "round", result.Round, "error", err)
		}
	}()
}

func (l *Lobby) publish(events []game.Event) {
	if len(events) == 0 {
		return
	}
	Publish(l.out, l.code, l.recipients(), events)
}

// recipients are the connected seated players
func (l *Lobby) recipients() []string {
	ids := make([]string, 0, len(l.players))
	for _, p := range l.players {
		if p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (l *Lobby) rosterEvent() RosterUpdatedEvent {
	return RosterUpdatedEvent{
		Code:    l.code,
		HostID:  l.hostID,
		Started: l.started,
		Players: game.PublicPlayers(l.players),
	}
}

func (l *Lobby) state() State {
	st := State{
		Code:    l.code,
		HostID:  l.hostID,
		Started: l.started,
		Round:   l.roundNumber,
		Players: game.PublicPlayers(l.players),
	}
	if l.round != nil {
		snap := l.round.Snapshot()
		st.Current = &snap
	}
	return st
}

func (l *Lobby) refreshSummary() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summary = Summary{
		Code:    l.code,
		HostID:  l.hostID,
		Players: len(l.players),
		Started: l.started,
		Round:   l.roundNumber,
	}
}

func (l *Lobby) seat(playerID string) int {
	return slices.IndexFunc(l.players, func(p *game.Player) bool { return p.ID == playerID })
}

func (l *Lobby) inRound(playerID string) bool {
	if l.round == nil {
		return false
	}
	for _, p := range l.round.Snapshot().Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func (l *Lobby) connectedCount() int {
	return len(l.recipients())
}
