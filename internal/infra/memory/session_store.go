package memory

import (
	"hash/fnv"
	"sync"

	"kana-quiz-service/internal/app"
)

const shardCount = 32

// SessionStore is an in-memory implementation of app.SessionRepository.
// Players are spread over shards so unrelated players do not share a lock.
type SessionStore struct {
	shards [shardCount]sessionShard
}

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	s := &SessionStore{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*app.Session)
	}
	return s
}

func (s *SessionStore) shard(playerID string) *sessionShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(playerID))
	return &s.shards[h.Sum32()%shardCount]
}

func (s *SessionStore) Create(playerID string, session *app.Session) bool {
	sh := s.shard(playerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[playerID]; ok {
		return false
	}
	sh.sessions[playerID] = session
	return true
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	sh := s.shard(playerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	session, ok := sh.sessions[playerID]
	return session, ok
}

func (s *SessionStore) Delete(playerID string, session *app.Session) {
	sh := s.shard(playerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if current, ok := sh.sessions[playerID]; ok && current == session {
		delete(sh.sessions, playerID)
	}
}

// Len counts registered sessions across shards.
func (s *SessionStore) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		n += len(s.shards[i].sessions)
		s.shards[i].mu.RUnlock()
	}
	return n
}
