package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kana-quiz-service/internal/domain"
)

func TestStatsStoreHistoryNewestFirst(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := domain.HistoryEntry{
			ID:       fmt.Sprintf("s%d", i),
			PlayerID: "p1",
			Result:   domain.SessionResult{Score: i},
		}
		if err := store.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Same ID again is ignored.
	_ = store.AppendHistory(ctx, domain.HistoryEntry{ID: "s4", PlayerID: "p1"})

	got, err := store.ListHistory(ctx, "p1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "s4" || got[2].ID != "s2" {
		t.Fatalf("unexpected order: %+v", got)
	}

	all, _ := store.ListHistory(ctx, "p1", 50)
	if len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(all))
	}
}

func TestStatsStoreHistoryNonPositiveLimit(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()
	_ = store.AppendHistory(ctx, domain.HistoryEntry{ID: "s1", PlayerID: "p1"})

	for _, limit := range []int{0, -1, -50} {
		got, err := store.ListHistory(ctx, "p1", limit)
		if err != nil || len(got) != 0 {
			t.Fatalf("limit %d: expected no entries, got %v err=%v", limit, got, err)
		}
	}
}

func TestStatsCacheServesReadsFromCache(t *testing.T) {
	backing := &countingStore{StatsStore: NewStatsStore()}
	cache := NewStatsCache(backing, time.Minute)
	ctx := context.Background()

	if _, found, err := cache.LoadStats(ctx, "p1"); err != nil || found {
		t.Fatalf("expected miss without error, got found=%v err=%v", found, err)
	}
	if _, _, err := cache.LoadStats(ctx, "p1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected one backing load, got %d", backing.loads)
	}

	stats := domain.NewPlayerStatistics("p1")
	stats.TotalGames = 3
	if err := cache.SaveStats(ctx, stats); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := cache.LoadStats(ctx, "p1")
	if err != nil || !found || got.TotalGames != 3 {
		t.Fatalf("expected cached write-through, got %+v found=%v err=%v", got, found, err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected cache hit after save, loads=%d", backing.loads)
	}
}

func TestStatsCacheDropsEntryOnFailedSave(t *testing.T) {
	backing := &countingStore{StatsStore: NewStatsStore(), failSave: true}
	cache := NewStatsCache(backing, time.Minute)
	ctx := context.Background()

	_, _, _ = cache.LoadStats(ctx, "p1")
	if err := cache.SaveStats(ctx, domain.NewPlayerStatistics("p1")); err == nil {
		t.Fatalf("expected save error")
	}
	_, _, _ = cache.LoadStats(ctx, "p1")
	if backing.loads != 2 {
		t.Fatalf("expected reload after failed save, loads=%d", backing.loads)
	}
}

type countingStore struct {
	*StatsStore
	loads    int
	failSave bool
}

func (s *countingStore) LoadStats(ctx context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	s.loads++
	return s.StatsStore.LoadStats(ctx, playerID)
}

func (s *countingStore) SaveStats(ctx context.Context, stats domain.PlayerStatistics) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.StatsStore.SaveStats(ctx, stats)
}
