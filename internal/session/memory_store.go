package session

import (
	"context"
	"sync"
	"time"

	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.session.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = memoryEntry{
		session:   s.clone(),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, ttl time.Duration, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}

	next := entry.session.clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	m.sessions[id] = memoryEntry{
		session:   next.clone(),
		expiresAt: m.now().Add(ttl),
	}
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunSweeper sweeps every interval until ctx is cancelled and publishes the live session count.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("expired booking sessions swept", "count", n)
			}
			metrics.ActiveSessions.Set(float64(m.Len()))
		}
	}
}
