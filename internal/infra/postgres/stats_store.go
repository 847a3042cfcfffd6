package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kana-quiz-service/internal/domain"
)

// StatsStore keeps player statistics and game history in Postgres.
// Tables are created by the migrations package.
type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

func (s *StatsStore) LoadStats(ctx context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	stats := domain.PlayerStatistics{PlayerID: playerID}
	var (
		timePlayedMs            int64
		tiers, modalities       []byte
		firstPlayed, lastPlayed *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT total_games, total_questions, total_correct, time_played_ms, average_accuracy,
		       tiers, modalities, current_streak, best_streak, first_played_at, last_played_at, last_session_id
		FROM player_stats WHERE player_id=$1`, playerID).Scan(
		&stats.TotalGames, &stats.TotalQuestions, &stats.TotalCorrect, &timePlayedMs, &stats.AverageAccuracy,
		&tiers, &modalities, &stats.CurrentStreak, &stats.BestStreak, &firstPlayed, &lastPlayed, &stats.LastSessionID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerStatistics{}, false, nil
	}
	if err != nil {
		return domain.PlayerStatistics{}, false, fmt.Errorf("load stats: %w", err)
	}
	if err := json.Unmarshal(tiers, &stats.Tiers); err != nil {
		return domain.PlayerStatistics{}, false, fmt.Errorf("unmarshal tiers: %w", err)
	}
	if err := json.Unmarshal(modalities, &stats.Modalities); err != nil {
		return domain.PlayerStatistics{}, false, fmt.Errorf("unmarshal modalities: %w", err)
	}
	stats.TimePlayed = time.Duration(timePlayedMs) * time.Millisecond
	if firstPlayed != nil {
		stats.FirstPlayedAt = firstPlayed.UTC()
	}
	if lastPlayed != nil {
		stats.LastPlayedAt = lastPlayed.UTC()
	}
	return stats, true, nil
}

func (s *StatsStore) SaveStats(ctx context.Context, stats domain.PlayerStatistics) error {
	tiers, err := json.Marshal(stats.Tiers)
	if err != nil {
		return err
	}
	modalities, err := json.Marshal(stats.Modalities)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO player_stats (player_id, total_games, total_questions, total_correct, time_played_ms,
			average_accuracy, tiers, modalities, current_streak, best_streak, first_played_at, last_played_at, last_session_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, now())
		ON CONFLICT (player_id) DO UPDATE SET
			total_games=EXCLUDED.total_games,
			total_questions=EXCLUDED.total_questions,
			total_correct=EXCLUDED.total_correct,
			time_played_ms=EXCLUDED.time_played_ms,
			average_accuracy=EXCLUDED.average_accuracy,
			tiers=EXCLUDED.tiers,
			modalities=EXCLUDED.modalities,
			current_streak=EXCLUDED.current_streak,
			best_streak=EXCLUDED.best_streak,
			first_played_at=EXCLUDED.first_played_at,
			last_played_at=EXCLUDED.last_played_at,
			last_session_id=EXCLUDED.last_session_id,
			updated_at=now()`,
		stats.PlayerID, stats.TotalGames, stats.TotalQuestions, stats.TotalCorrect, stats.TimePlayed.Milliseconds(),
		stats.AverageAccuracy, string(tiers), string(modalities), stats.CurrentStreak, stats.BestStreak,
		nullableTime(stats.FirstPlayedAt), nullableTime(stats.LastPlayedAt), stats.LastSessionID,
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// AppendHistory is a no-op for an ID that is already stored.
func (s *StatsStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry.Result)
	if err != nil {
		return err
	}
	r := entry.Result
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_history (id, player_id, recorded_at, tier, modality, outcome, score, total, duration_ms, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.PlayerID, entry.RecordedAt, int(r.Tier), string(r.Modality), string(r.Outcome),
		r.Score, r.Total, r.Duration.Milliseconds(), string(raw),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *StatsStore) ListHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, player_id, recorded_at, result FROM game_history
		WHERE player_id=$1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry domain.HistoryEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.ID, &entry.PlayerID, &entry.RecordedAt, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &entry.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		entry.RecordedAt = entry.RecordedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
