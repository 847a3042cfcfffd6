// Package sqlite persists player statistics in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.

	"kana-quiz-service/internal/domain"
)

// StatsStore keeps statistics and history in SQLite.
type StatsStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*StatsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; SQLite would report SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)
	store := &StatsStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *StatsStore) Close() error {
	return s.db.Close()
}

func (s *StatsStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS player_stats (
			player_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS game_history (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			seq INTEGER NOT NULL,
			result TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_history_player ON game_history(player_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsStore) LoadStats(ctx context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM player_stats WHERE player_id = ?`, playerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerStatistics{}, false, nil
	}
	if err != nil {
		return domain.PlayerStatistics{}, false, err
	}
	var stats domain.PlayerStatistics
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return domain.PlayerStatistics{}, false, fmt.Errorf("decode stats for %s: %w", playerID, err)
	}
	return stats, true, nil
}

func (s *StatsStore) SaveStats(ctx context.Context, stats domain.PlayerStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO player_stats (player_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		stats.PlayerID, string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// AppendHistory ignores an entry whose ID is already stored.
func (s *StatsStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_history (id, player_id, recorded_at, seq, result)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM game_history), ?)
		 ON CONFLICT(id) DO NOTHING`,
		entry.ID, entry.PlayerID, entry.RecordedAt.UTC().Format(time.RFC3339Nano), string(raw),
	)
	return err
}

func (s *StatsStore) ListHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, result FROM game_history
		 WHERE player_id = ? ORDER BY seq DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var id, recordedAt, raw string
		if err := rows.Scan(&id, &recordedAt, &raw); err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		entry := domain.HistoryEntry{ID: id, PlayerID: playerID, RecordedAt: at}
		if err := json.Unmarshal([]byte(raw), &entry.Result); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", id, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
