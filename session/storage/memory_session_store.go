package storage

import (
	"errors"
	"sync"

	"github.com/sablehttp/sable/session"
)

var ErrSessionNotFound = errors.New("session store: session not found")

const MemorySessionStoreName = "memory"

// MemorySessionStore is the in-process SessionStore. It is mounted by
// http.SessionMiddleware, which may be invoked concurrently by any number
// of connection-handling goroutines (§5: "Rate-limiter state, session
// stores, and any other mutable middleware state must be protected by the
// middleware itself"), so every access to data is serialized through mu.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

func NewMemorySessionStore() SessionStore {
	return &MemorySessionStore{
		data: make(map[string]map[string]any),
	}
}

func (m *MemorySessionStore) Close() error {
	return nil
}

func (m *MemorySessionStore) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, found := m.data[id]
	return found
}

func (m *MemorySessionStore) Get(id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, found := m.data[id]
	if !found {
		return nil, ErrSessionNotFound
	}

	return data, nil
}

func (m *MemorySessionStore) Save(session session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[session.GetId()] = session.All()
	return nil
}

func (m *MemorySessionStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
