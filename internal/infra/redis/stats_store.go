package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kana-quiz-service/internal/domain"
)

// StatsStore keeps player statistics and history in Redis.
// Statistics are stored as JSON:    SET   quiz:stats:{playerID}
// History is a newest-first list:   LPUSH quiz:history:{playerID}
// Recorded session IDs live in:     SADD  quiz:history:{playerID}:ids
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) LoadStats(ctx context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	raw, err := s.client.Get(ctx, s.statsKey(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PlayerStatistics{}, false, nil
	}
	if err != nil {
		return domain.PlayerStatistics{}, false, err
	}
	var stats domain.PlayerStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.PlayerStatistics{}, false, fmt.Errorf("decode stats for %s: %w", playerID, err)
	}
	return stats, true, nil
}

func (s *StatsStore) SaveStats(ctx context.Context, stats domain.PlayerStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.statsKey(stats.PlayerID), raw, 0).Err()
}

// AppendHistory pushes entry unless its ID was already recorded.
func (s *StatsStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	added, err := s.client.SAdd(ctx, s.idsKey(entry.PlayerID), entry.ID).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return nil
	}
	if err := s.client.LPush(ctx, s.historyKey(entry.PlayerID), raw).Err(); err != nil {
		// let a retry push it again
		_ = s.client.SRem(ctx, s.idsKey(entry.PlayerID), entry.ID).Err()
		return err
	}
	return nil
}

func (s *StatsStore) ListHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := s.client.LRange(ctx, s.historyKey(playerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode history for %s: %w", playerID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *StatsStore) statsKey(playerID string) string {
	return "quiz:stats:" + playerID
}

func (s *StatsStore) historyKey(playerID string) string {
	return "quiz:history:" + playerID
}

func (s *StatsStore) idsKey(playerID string) string {
	return "quiz:history:" + playerID + ":ids"
}
