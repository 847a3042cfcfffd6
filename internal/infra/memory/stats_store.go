package memory

import (
	"context"
	"sync"

	"kana-quiz-service/internal/domain"
)

// StatsStore keeps statistics and history in process memory (useful for tests/demos).
type StatsStore struct {
	mu      sync.RWMutex
	stats   map[string]domain.PlayerStatistics
	history map[string][]domain.HistoryEntry
	seen    map[string]struct{}
}

func NewStatsStore() *StatsStore {
	return &StatsStore{
		stats:   make(map[string]domain.PlayerStatistics),
		history: make(map[string][]domain.HistoryEntry),
		seen:    make(map[string]struct{}),
	}
}

func (s *StatsStore) LoadStats(_ context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[playerID]
	return stats, ok, nil
}

func (s *StatsStore) SaveStats(_ context.Context, stats domain.PlayerStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.PlayerID] = stats
	return nil
}

// AppendHistory ignores an entry whose ID was already stored.
func (s *StatsStore) AppendHistory(_ context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[entry.ID]; dup {
		return nil
	}
	s.seen[entry.ID] = struct{}{}
	s.history[entry.PlayerID] = append(s.history[entry.PlayerID], entry)
	return nil
}

func (s *StatsStore) ListHistory(_ context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[playerID]
	out := make([]domain.HistoryEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}
