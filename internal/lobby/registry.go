package lobby

import (
	"fmt"
	rand "math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/internal/history"
	"github.com/lox/pokerrooms/internal/randutil"
)

// Registry maps room codes to live lobbies. It is the only shared state
// between connections; each lobby serializes its own commands.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby

	cfg      Config
	codes    *CodeGenerator
	clock    quartz.Clock
	out      Broadcaster
	recorder history.Recorder
	logger   *log.Logger
	seeds    *rand.Rand
	onClose  func(code string, playerIDs []string)
}

// lobbyDeps are the collaborators a registry hands to each lobby
type lobbyDeps struct {
	clock    quartz.Clock
	out      Broadcaster
	recorder history.Recorder
	rng      *rand.Rand
	logger   *log.Logger
	onClose  func(code string, playerIDs []string)
}

// Option configures a Registry
type Option func(*Registry)

// WithClock sets the clock used for settlement delays
func WithClock(clock quartz.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithRecorder stores every settled round
func WithRecorder(rec history.Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// WithRandSource makes generated codes deterministic
func WithRandSource(src RandSource) Option {
	return func(r *Registry) { r.codes = NewCodeGenerator(r.cfg.CodeLength, src) }
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, out Broadcaster, logger *log.Logger, opts ...Option) *Registry {
	if out == nil {
		out = Discard
	}
	r := &Registry{
		lobbies: make(map[string]*Lobby),
		cfg:     cfg,
		codes:   NewCodeGenerator(cfg.CodeLength, nil),
		clock:   quartz.NewReal(),
		out:     out,
		logger:  logger,
		seeds:   randutil.New(randutil.Resolve(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnClose registers a callback run when a lobby destroys itself
func (r *Registry) OnClose(fn func(code string, playerIDs []string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

// Create registers a lobby with host as its only player. An empty code
// asks the registry to generate one.
func (r *Registry) Create(code string, host Identity) (*Lobby, error) {
	code = NormalizeCode(code)
	if code != "" {
		if err := ValidateCode(code); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if code == "" {
		generated, err := r.codes.Unique(func(c string) bool {
			_, taken := r.lobbies[c]
			return taken
		})
		if err != nil {
			return nil, err
		}
		code = generated
	} else if _, exists := r.lobbies[code]; exists {
		return nil, fmt.Errorf("create %s: %w", code, ErrCodeAlreadyExists)
	}

	l := newLobby(code, host, r.cfg, lobbyDeps{
		clock:    r.clock,
		out:      r.out,
		recorder: r.recorder,
		rng:      randutil.New(r.seeds.Int64()),
		logger:   r.logger,
		onClose:  r.closed,
	})
	r.lobbies[code] = l
	r.logger.Info("Lobby created", "code", code, "host", host.ID)
	return l, nil
}

// Get returns the lobby for code
func (r *Registry) Get(code string) (*Lobby, error) {
	code = NormalizeCode(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", code, ErrLobbyNotFound)
	}
	return l, nil
}

// Remove stops and forgets a lobby
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	l, ok := r.lobbies[code]
	delete(r.lobbies, code)
	r.mu.Unlock()

	if ok {
		l.Stop()
	}
}

// List returns a summary of every live lobby ordered by code
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		out = append(out, l.Summary())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// Len returns the number of live lobbies
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// Shutdown stops every lobby
func (r *Registry) Shutdown() {
	r.mu.Lock()
	lobbies := make([]*Lobby, 0, len(r.lobbies))
	for code, l := range r.lobbies {
		lobbies = append(lobbies, l)
		delete(r.lobbies, code)
	}
	r.mu.Unlock()

	for _, l := range lobbies {
		l.Stop()
	}
	r.logger.Info("Registry shut down", "lobbies", len(lobbies))
}

// closed runs on the lobby's own goroutine after it destroys itself, so it
// must not wait for that lobby.
func (r *Registry) closed(code string, playerIDs []string) {
	r.mu.Lock()
	delete(r.lobbies, code)
	fn := r.onClose
	r.mu.Unlock()

	if fn != nil {
		fn(code, playerIDs)
	}
}
