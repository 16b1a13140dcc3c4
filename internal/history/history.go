// Package history persists settled rounds so finished games can be reviewed.
//
// Two backends are provided: SQLite for a single server process and
// Postgres for deployments that share a database. Recording is best effort
// from the lobby's point of view; a failed write is logged and the game
// carries on.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lox/pokerrooms/internal/deck"
	"github.com/lox/pokerrooms/internal/game"
)

// Recorder persists settled rounds
type Recorder interface {
	Record(ctx context.Context, result game.Result) error
	Close() error
}

// Reader lists recorded rounds, newest first
type Reader interface {
	Recent(ctx context.Context, code string, limit int) ([]Entry, error)
}

// Store is a Recorder that can also read back what it wrote
type Store interface {
	Recorder
	Reader
}

// Entry is one recorded round
type Entry struct {
	Code        string        `json:"roomCode"`
	Round       int           `json:"round"`
	Pot         int           `json:"pot"`
	Board       []deck.Card   `json:"board"`
	Winners     []game.Winner `json:"winners"`
	Uncontested bool          `json:"uncontested"`
	RecordedAt  time.Time     `json:"recordedAt"`
}

const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. An empty driver or "none" disables
// recording.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverSQLite, "sqlite3":
		return OpenSQLite(ctx, dsn)
	case DriverPostgres, "postgresql", "pgx":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver %q (supported: %s, %s, %s)", driver, DriverNone, DriverSQLite, DriverPostgres)
	}
}

// Nop discards every round
type Nop struct{}

func (Nop) Record(context.Context, game.Result) error { return nil }
func (Nop) Close() error                              { return nil }

func (Nop) Recent(context.Context, string, int) ([]Entry, error) { return nil, nil }

func encodeWinners(winners []game.Winner) (string, error) {
	if winners == nil {
		winners = []game.Winner{}
	}
	b, err := json.Marshal(winners)
	if err != nil {
		return "", fmt.Errorf("encode winners: %w", err)
	}
	return string(b), nil
}

func decodeEntry(e *Entry, board, winners string) error {
	cards, err := deck.ParseCards(board)
	if err != nil {
		return fmt.Errorf("decode board %q: %w", board, err)
	}
	e.Board = cards
	if err := json.Unmarshal([]byte(winners), &e.Winners); err != nil {
		return fmt.Errorf("decode winners: %w", err)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
