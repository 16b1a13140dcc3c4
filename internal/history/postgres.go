package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/pokerrooms/internal/deck"
	"github.com/lox/pokerrooms/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS rounds (
    id          BIGSERIAL PRIMARY KEY,
    room_code   TEXT        NOT NULL,
    round       INTEGER     NOT NULL,
    pot         INTEGER     NOT NULL,
    board       TEXT        NOT NULL,
    winners     JSONB       NOT NULL,
    uncontested BOOLEAN     NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rounds_room_code_idx ON rounds(room_code, id);
`

// PostgresStore records rounds in a shared Postgres database
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and makes sure the schema exists
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Record implements Recorder
func (s *PostgresStore) Record(ctx context.Context, result game.Result) error {
	winners, err := encodeWinners(result.Winners)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rounds(room_code, round, pot, board, winners, uncontested)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`, result.Code, result.Round, result.Pot, deck.FormatCards(result.Board), winners, result.Uncontested)
	if err != nil {
		return fmt.Errorf("insert round %s/%d: %w", result.Code, result.Round, err)
	}
	return nil
}

// Recent implements Reader
func (s *PostgresStore) Recent(ctx context.Context, code string, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT room_code, round, pot, board, winners::text, uncontested, recorded_at
		FROM rounds
		WHERE room_code = $1
		ORDER BY id DESC
		LIMIT $2
	`, code, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			board, winners string
		)
		if err := rows.Scan(&e.Code, &e.Round, &e.Pot, &board, &winners, &e.Uncontested, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := decodeEntry(&e, board, winners); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
