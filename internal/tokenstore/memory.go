package tokenstore

import (
	"sync"
	"time"
)

// Memory is a process-local Store. Tokens are lost on restart.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]entry
}

// NewMemory creates an empty in-memory store.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]entry),
	}
}

func (m *Memory) Get(userID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return "", false
	}
	if e.expired(m.ttl, m.now()) {
		delete(m.entries, userID)
		return "", false
	}
	return e.Token, true
}

func (m *Memory) Set(userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = entry{Token: token, SavedAt: m.now()}
	return nil
}

func (m *Memory) Delete(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, e := range m.entries {
		if !e.expired(m.ttl, now) {
			n++
		}
	}
	return n
}

func (m *Memory) Close() error { return nil }
