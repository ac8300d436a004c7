package repository

import (
	"amongirl/internal/model"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteResultRepo archives finished games in a local SQLite file, for
// deployments that run without MongoDB.
type SQLiteResultRepo struct {
	db *sql.DB
}

var resultMigrations = []string{
	`CREATE TABLE IF NOT EXISTS results (
		session_id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		winner TEXT NOT NULL,
		players TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS results_finished_at ON results (finished_at)`,
}

// OpenSQLiteResultRepo opens (or creates) the archive at path and applies
// the schema.
func OpenSQLiteResultRepo(path string) (*SQLiteResultRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	for _, m := range resultMigrations {
		if _, err := db.Exec(m); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite db: %w", err)
		}
	}
	return &SQLiteResultRepo{db: db}, nil
}

var _ ResultRepo = (*SQLiteResultRepo)(nil)

// Close closes the database handle
func (r *SQLiteResultRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save upserts by session id, matching the Mongo archive
func (r *SQLiteResultRepo) Save(ctx context.Context, result *model.GameResult) error {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("failed to encode players: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO results (session_id, code, winner, players, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			code = excluded.code,
			winner = excluded.winner,
			players = excluded.players,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
		result.SessionID,
		result.Code,
		string(result.Winner),
		string(players),
		toMillis(result.StartedAt),
		toMillis(result.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.SessionID, err)
	}
	return nil
}

// GetBySessionID returns nil, nil when the game was never archived
func (r *SQLiteResultRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.GameResult, error) {
	var (
		result     model.GameResult
		winner     string
		players    string
		startedAt  int64
		finishedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, code, winner, players, started_at, finished_at FROM results WHERE session_id = ?`,
		sessionID,
	).Scan(&result.SessionID, &result.Code, &winner, &players, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result %s: %w", sessionID, err)
	}

	if err := json.Unmarshal([]byte(players), &result.Players); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}
	result.Winner = model.Winner(winner)
	result.StartedAt = fromMillis(startedAt)
	result.FinishedAt = fromMillis(finishedAt)
	return &result, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
