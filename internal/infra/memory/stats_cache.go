package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/domain"
)

// StatsCache caches statistics reads with TTL in front of a slower store.
// Writes go through to the backing store and refresh the cached copy.
type StatsCache struct {
	backing app.StatsRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedStats
}

type cachedStats struct {
	stats     domain.PlayerStatistics
	found     bool
	expiresAt time.Time
}

func NewStatsCache(backing app.StatsRepository, ttl time.Duration) *StatsCache {
	return &StatsCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedStats),
	}
}

func (c *StatsCache) LoadStats(ctx context.Context, playerID string) (domain.PlayerStatistics, bool, error) {
	if entry, ok := c.lookup(playerID); ok {
		return entry.stats, entry.found, nil
	}

	result, err, _ := c.sf.Do(playerID, func() (interface{}, error) {
		if entry, ok := c.lookup(playerID); ok {
			return entry, nil
		}
		stats, found, err := c.backing.LoadStats(ctx, playerID)
		if err != nil {
			return cachedStats{}, err
		}
		entry := c.store(playerID, stats, found)
		return entry, nil
	})
	if err != nil {
		return domain.PlayerStatistics{}, false, err
	}
	entry := result.(cachedStats)
	return entry.stats, entry.found, nil
}

func (c *StatsCache) SaveStats(ctx context.Context, stats domain.PlayerStatistics) error {
	if err := c.backing.SaveStats(ctx, stats); err != nil {
		c.Invalidate(stats.PlayerID)
		return err
	}
	c.store(stats.PlayerID, stats, true)
	return nil
}

func (c *StatsCache) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	return c.backing.AppendHistory(ctx, entry)
}

func (c *StatsCache) ListHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	return c.backing.ListHistory(ctx, playerID, limit)
}

// Invalidate drops the cached record of a player.
func (c *StatsCache) Invalidate(playerID string) {
	c.mu.Lock()
	delete(c.cache, playerID)
	c.mu.Unlock()
}

func (c *StatsCache) lookup(playerID string) (cachedStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[playerID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return cachedStats{}, false
	}
	return entry, true
}

func (c *StatsCache) store(playerID string, stats domain.PlayerStatistics, found bool) cachedStats {
	entry := cachedStats{
		stats:     stats,
		found:     found,
		expiresAt: c.clock().Add(c.ttlWithJitter()),
	}
	c.mu.Lock()
	c.cache[playerID] = entry
	c.mu.Unlock()
	return entry
}

func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
