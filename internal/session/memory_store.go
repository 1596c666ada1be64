package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. It is used when no Redis URL is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]Data
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now, sessions: make(map[string]Data)}
}

func (m *MemoryStore) Save(ctx context.Context, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if data.ExpiresAt.IsZero() {
		data.ExpiresAt = m.now().Add(ttlUntil(data.ExpiresAt, m.now()))
	}
	m.sessions[data.ID] = data
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Data, error) {
	if err := ctx.Err(); err != nil {
		return Data{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sessions[id]
	if !ok {
		return Data{}, ErrNotFound
	}
	if !m.now().Before(data.ExpiresAt) {
		delete(m.sessions, id)
		return Data{}, ErrNotFound
	}
	return data, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() error {
	return nil
}
