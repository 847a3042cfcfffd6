package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kana-quiz-service/internal/domain"
)

const (
	// DefaultHistoryLimit is used when a caller asks for a non-positive limit.
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps a single history query.
	MaxHistoryLimit = 50
)

// StatsRepository persists player statistics and history (memory, Redis, Postgres, SQLite).
// found is false when the player has never been merged.
type StatsRepository interface {
	LoadStats(ctx context.Context, playerID string) (stats domain.PlayerStatistics, found bool, err error)
	SaveStats(ctx context.Context, stats domain.PlayerStatistics) error
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error)
}

// StatsAggregator folds finished sessions into player statistics.
type StatsAggregator struct {
	repo  StatsRepository
	locks *keyedMutex
	now   func() time.Time
}

func NewStatsAggregator(repo StatsRepository) *StatsAggregator {
	return NewStatsAggregatorWithClock(repo, time.Now)
}

// NewStatsAggregatorWithClock is test-only for deterministic timestamps.
func NewStatsAggregatorWithClock(repo StatsRepository, now func() time.Time) *StatsAggregator {
	return &StatsAggregator{repo: repo, locks: newKeyedMutex(), now: now}
}

// Merge applies result to the player's record and appends a history entry.
// Merges for one player never interleave. Merging the same session again is
// a no-op, so a failed merge can be retried safely: history is written
// first and is idempotent by ID, and the record remembers the last session
// it absorbed.
func (a *StatsAggregator) Merge(ctx context.Context, result domain.SessionResult) (domain.PlayerStatistics, error) {
	unlock := a.locks.Lock(result.PlayerID)
	defer unlock()

	stats, found, err := a.repo.LoadStats(ctx, result.PlayerID)
	if err != nil {
		return domain.PlayerStatistics{}, fmt.Errorf("load stats: %w", err)
	}
	if !found {
		stats = domain.NewPlayerStatistics(result.PlayerID)
	}

	now := a.now()
	entry := domain.HistoryEntry{
		ID:         result.SessionID,
		PlayerID:   result.PlayerID,
		RecordedAt: now,
		Result:     result,
	}
	if err := a.repo.AppendHistory(ctx, entry); err != nil {
		return domain.PlayerStatistics{}, fmt.Errorf("append history: %w", err)
	}

	if stats.LastSessionID == result.SessionID {
		return stats, nil
	}
	stats.Apply(result, now)
	if err := a.repo.SaveStats(ctx, stats); err != nil {
		return domain.PlayerStatistics{}, fmt.Errorf("save stats: %w", err)
	}
	return stats, nil
}

// Get returns the player's statistics, zeroed when the player never played.
func (a *StatsAggregator) Get(ctx context.Context, playerID string) (domain.PlayerStatistics, error) {
	stats, found, err := a.repo.LoadStats(ctx, playerID)
	if err != nil {
		return domain.PlayerStatistics{}, fmt.Errorf("load stats: %w", err)
	}
	if !found {
		return domain.NewPlayerStatistics(playerID), nil
	}
	return stats, nil
}

// History lists the newest entries first.
func (a *StatsAggregator) History(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	entries, err := a.repo.ListHistory(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// keyedMutex hands out one mutex per key. The table lock only guards
// bookkeeping, never the work done under a key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
