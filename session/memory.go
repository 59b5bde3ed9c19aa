package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]Session
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (ms *MemoryStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, false, nil
	}

	if !s.ExpiresAt.IsZero() && !ms.now().Before(s.ExpiresAt) {
		delete(ms.sessions, id)
		return nil, false, nil
	}

	return &s, true, nil
}

func (ms *MemoryStore) Save(ctx context.Context, s *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	if now.Sub(ms.lastSweep) > time.Hour {
		ms.sweep(now)
		ms.lastSweep = now
	}

	ms.sessions[s.ID] = *s
	return nil
}

// sweep drops expired sessions. Callers hold mu.
func (ms *MemoryStore) sweep(now time.Time) {
	for id, s := range ms.sessions {
		if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
			delete(ms.sessions, id)
		}
	}
}

// Len reports the number of sessions held, including not yet swept expired ones.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.sessions)
}
