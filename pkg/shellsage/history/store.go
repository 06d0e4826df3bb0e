// Package history persists a per-turn audit record for operator
// introspection (spec.md §9 Non-goals: this is NOT conversation-state
// persistence — the agent's working memory lives only in process memory
// for the lifetime of a session). Schema and access style follow the
// sqlite-backed stores elsewhere in the retrieved example pack, using
// modernc.org/sqlite (pure Go, no cgo) rather than the teacher's
// mattn/go-sqlite3.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// TurnRecord is one completed agent turn, as shown in `shellsage session
// history`.
type TurnRecord struct {
	TurnID      string
	Goal        string
	StartedAt   time.Time
	FinishedAt  time.Time
	StepCount   int
	DoneCount   int
	FailedCount int
	FinalStatus string // "completed", "incomplete", or "blocked"
}

// Store wraps a sqlite-backed turn history table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	turn_id      TEXT PRIMARY KEY,
	goal         TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL,
	step_count   INTEGER NOT NULL,
	done_count   INTEGER NOT NULL,
	failed_count INTEGER NOT NULL,
	final_status TEXT NOT NULL
);
`

// Open creates or opens the sqlite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTurn inserts one completed turn. Best-effort from the caller's
// point of view: a failure here must never fail the turn itself.
func (s *Store) RecordTurn(ctx context.Context, rec TurnRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO turns (turn_id, goal, started_at, finished_at, step_count, done_count, failed_count, final_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TurnID, rec.Goal, rec.StartedAt.Unix(), rec.FinishedAt.Unix(),
		rec.StepCount, rec.DoneCount, rec.FailedCount, rec.FinalStatus,
	)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// RecentTurns returns the most recent turns, newest first, bounded by
// limit.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_id, goal, started_at, finished_at, step_count, done_count, failed_count, final_status
		 FROM turns ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var started, finished int64
		if err := rows.Scan(&rec.TurnID, &rec.Goal, &started, &finished, &rec.StepCount, &rec.DoneCount, &rec.FailedCount, &rec.FinalStatus); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finished, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}
