// Package journal appends every completed round to a SQLite audit table.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/eventdraw/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	round       INTEGER NOT NULL,
	items       TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	pool_size   INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS rounds_session ON rounds (session_id, round);
`

// Entry is one journaled round.
type Entry struct {
	SessionID string    `json:"sessionId"`
	Round     int       `json:"round"`
	Items     []string  `json:"items"`
	Strategy  string    `json:"strategy"`
	PoolSize  int       `json:"poolSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// Journal records rounds in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path and runs migrations.
// ":memory:" keeps the journal in process.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single connection keeps in-memory databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records one round of a session.
func (j *Journal) Append(ctx context.Context, sessionID string, r model.Round) error {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO rounds (session_id, round, items, strategy, pool_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, r.Number, string(items), r.Strategy, r.PoolSize, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append round: %w", err)
	}
	return nil
}

// Rounds returns the most recent rounds of a session, newest first. A
// non-positive limit returns every round.
func (j *Journal) Rounds(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	query := `SELECT session_id, round, items, strategy, pool_size, created_at
		FROM rounds WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			items   string
			created string
		)
		if err := rows.Scan(&e.SessionID, &e.Round, &items, &e.Strategy, &e.PoolSize, &created); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &e.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return out, nil
}

// Count returns the number of journaled rounds across all sessions.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds").Scan(&n); err != nil {
		return 0, fmt.Errorf("count rounds: %w", err)
	}
	return n, nil
}
