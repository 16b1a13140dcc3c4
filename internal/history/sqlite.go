package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/pokerrooms/internal/deck"
	"github.com/lox/pokerrooms/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rounds (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    room_code   TEXT    NOT NULL,
    round       INTEGER NOT NULL,
    pot         INTEGER NOT NULL,
    board       TEXT    NOT NULL,
    winners     TEXT    NOT NULL,
    uncontested INTEGER NOT NULL,
    recorded_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS rounds_room_code_idx ON rounds(room_code, id);
`

// SQLiteStore records rounds in a local SQLite file
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// keeps everything in process.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, stmt := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare sqlite: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Record implements Recorder
func (s *SQLiteStore) Record(ctx context.Context, result game.Result) error {
	winners, err := encodeWinners(result.Winners)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds(room_code, round, pot, board, winners, uncontested, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.Code, result.Round, result.Pot, deck.FormatCards(result.Board), winners,
		result.Uncontested, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert round %s/%d: %w", result.Code, result.Round, err)
	}
	return nil
}

// Recent implements Reader
func (s *SQLiteStore) Recent(ctx context.Context, code string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_code, round, pot, board, winners, uncontested, recorded_at
		FROM rounds
		WHERE room_code = ?
		ORDER BY id DESC
		LIMIT ?
	`, code, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var board, winners, recordedAt string
		if err := rows.Scan(&e.Code, &e.Round, &e.Pot, &board, &winners, &e.Uncontested, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := decodeEntry(&e, board, winners); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("decode recorded_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
