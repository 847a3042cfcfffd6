package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/infra/memory"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions themselves stay in a local sharded registry; their state and
//     clock are owned by this process.
//   - Redis holds a liveness key per player carrying the session ID, so a
//     second instance cannot open a session for the same player while the
//     key is alive.
//   - No local lock is held across a Redis round trip, so a slow Redis only
//     delays the player being created or deleted.
//   - Redis errors degrade to local-only behaviour.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	local  *memory.SessionStore
}

// releaseScript deletes the liveness key only if it still names the session.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		local:  memory.NewSessionStore(),
	}
}

func (s *SessionStore) Create(playerID string, session *app.Session) bool {
	if _, ok := s.local.Get(playerID); ok {
		return false
	}
	claimed, err := s.client.SetNX(context.Background(), s.key(playerID), session.ID(), s.ttl).Result()
	if err == nil && !claimed {
		return false
	}
	if !s.local.Create(playerID, session) {
		// lost to a concurrent create in this process
		if claimed {
			s.release(playerID, session)
		}
		return false
	}
	return true
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	return s.local.Get(playerID)
}

func (s *SessionStore) Delete(playerID string, session *app.Session) {
	s.local.Delete(playerID, session)
	s.release(playerID, session)
}

// release is best-effort; the key expires on its own otherwise.
func (s *SessionStore) release(playerID string, session *app.Session) {
	_ = releaseScript.Run(context.Background(), s.client, []string{s.key(playerID)}, session.ID()).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "quiz:session:" + playerID
}
