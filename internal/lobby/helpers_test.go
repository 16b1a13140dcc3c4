package lobby

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerrooms/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type delivery struct {
	to      string
	private bool
	ev      game.Event
}

// recordingBroadcaster keeps every delivery in order
type recordingBroadcaster struct {
	mu         sync.Mutex
	deliveries []delivery
	// panicOn makes the next broadcast of this event type panic once
	panicOn game.EventType
	// onSend runs after each private delivery
	onSend func(playerID string, ev game.Event)
}

func (r *recordingBroadcaster) Broadcast(code string, playerIDs []string, ev game.Event) {
	r.mu.Lock()
	if r.panicOn != "" && ev.EventType() == r.panicOn {
		r.panicOn = ""
		r.mu.Unlock()
		panic("broadcast exploded")
	}
	defer r.mu.Unlock()
	for _, id := range playerIDs {
		r.deliveries = append(r.deliveries, delivery{to: id, ev: ev})
	}
}

func (r *recordingBroadcaster) Send(playerID string, ev game.Event) {
	r.mu.Lock()
	r.deliveries = append(r.deliveries, delivery{to: playerID, private: true, ev: ev})
	hook := r.onSend
	r.mu.Unlock()
	if hook != nil {
		hook(playerID, ev)
	}
}

func (r *recordingBroadcaster) eventsFor(playerID string) []game.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Event
	for _, d := range r.deliveries {
		if d.to == playerID {
			out = append(out, d.ev)
		}
	}
	return out
}

func (r *recordingBroadcaster) typesFor(playerID string) []game.EventType {
	events := r.eventsFor(playerID)
	out := make([]game.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.EventType()
	}
	return out
}

func (r *recordingBroadcaster) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

func lastOf[T game.Event](events []game.Event) (T, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if ev, ok := events[i].(T); ok {
			return ev, true
		}
	}
	var zero T
	return zero, false
}

type fixture struct {
	clock      *quartz.Mock
	out        *recordingBroadcaster
	registry   *Registry
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock: quartz.NewMock(t),
		out:   &recordingBroadcaster{},
	}
	opts = append([]Option{WithClock(f.clock)}, opts...)
	f.registry = NewRegistry(cfg, f.out, testLogger(), opts...)
	f.dispatcher = NewDispatcher(f.registry, testLogger())
	t.Cleanup(f.registry.Shutdown)
	return f
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 7
	return cfg
}

// seat connects the players and puts them all in one room hosted by the first
func (f *fixture) seat(t *testing.T, code string, ids ...string) *Lobby {
	t.Helper()
	for _, id := range ids {
		f.dispatcher.Connect(id)
	}
	got, err := f.dispatcher.CreateLobby(Identity{ID: ids[0], Name: ids[0]}, code)
	require.NoError(t, err)
	for _, id := range ids[1:] {
		require.NoError(t, f.dispatcher.JoinLobby(Identity{ID: id, Name: id}, got))
	}
	l, err := f.registry.Get(got)
	require.NoError(t, err)
	return l
}

func state(t *testing.T, l *Lobby) State {
	t.Helper()
	st, err := l.State()
	require.NoError(t, err)
	return st
}
