package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// record — значение с абсолютным сроком годности.
type record struct {
	payload   []byte
	expiresAt time.Time
}

// Memory — кэш в памяти процесса. Значения хранятся в сериализованном
// виде, чтобы Get всегда отдавал независимую копию.
type Memory struct {
	mu      sync.RWMutex
	records map[string]record

	// подменяется в тестах.
	now func() time.Time
}

// NewMemory создаёт пустой кэш в памяти.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]record),
		now:     time.Now,
	}
}

// Get реализует Cache.Get.
func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	rec, ok := m.records[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if !m.now().Before(rec.expiresAt) {
		m.purge(key)
		return false, nil
	}

	if err := json.Unmarshal(rec.payload, dst); err != nil {
		// Битый payload — промах, запись больше не нужна.
		m.purge(key)
		return false, nil
	}

	return true, nil
}

// Set реализует Cache.Set.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records[key] = record{
		payload:   payload,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()

	return nil
}

// Invalidate реализует Cache.Invalidate.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.purge(key)
	return nil
}

// Close реализует Cache.Close.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.records = make(map[string]record)
	m.mu.Unlock()

	return nil
}

func (m *Memory) purge(key string) {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
}
