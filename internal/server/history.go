package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryEntry is one persisted render record.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Score     string    `json:"score"`
	Preset    string    `json:"preset"`
	Mode      string    `json:"mode"`
	Duration  float64   `json:"duration"`
	Peak      float64   `json:"peak"`
	Warnings  int       `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS render_history (
	id TEXT PRIMARY KEY,
	score TEXT NOT NULL,
	preset TEXT NOT NULL,
	mode TEXT NOT NULL,
	duration REAL NOT NULL,
	peak REAL NOT NULL,
	warnings INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// HistoryStore persists finished renders in sqlite.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistory opens the history database, creating it if needed.
func OpenHistory(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if _, err := db.Exec(createHistoryTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

func (h *HistoryStore) Close() error { return h.db.Close() }

// Record inserts one finished job.
func (h *HistoryStore) Record(ctx context.Context, job Job) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO render_history (id, score, preset, mode, duration, peak, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Score, job.Preset, job.Mode, job.Duration, job.Peak, len(job.Warnings), job.CreatedAt)
	if err != nil {
		return fmt.Errorf("record render %s: %w", job.ID, err)
	}
	return nil
}

// Recent returns the newest renders first. A non-positive limit means 50.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, score, preset, mode, duration, peak, warnings, created_at
		 FROM render_history ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Score, &e.Preset, &e.Mode, &e.Duration, &e.Peak, &e.Warnings, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
