package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

const (
	// DefaultTTL — окно свежести снимка метаданных.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries ограничивает рост кэша в долгоживущем процессе.
	DefaultMaxEntries = 1024
)

type entry struct {
	value      domain.MetadataSnapshot
	insertedAt time.Time
}

// Memory — потокобезопасный кэш метаданных с ленивым истечением по TTL.
// Просроченная запись удаляется при первом обращении, фоновой чистки нет.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group
	now        func() time.Time
}

// NewMemory создаёт кэш. Неположительные параметры заменяются значениями по умолчанию.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

var _ domain.MetadataCache = (*Memory)(nil)

// Get возвращает снимок, если он есть и ещё свежий.
func (m *Memory) Get(key string) (domain.MetadataSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		metrics.CacheMisses.Inc()
		return domain.MetadataSnapshot{}, false
	}
	if m.now().Sub(e.insertedAt) >= m.ttl {
		delete(m.entries, key)
		metrics.CacheMisses.Inc()
		return domain.MetadataSnapshot{}, false
	}
	metrics.CacheHits.Inc()
	return e.value, true
}

// Set безусловно перезаписывает снимок и сбрасывает отметку времени.
func (m *Memory) Set(key string, value domain.MetadataSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	m.entries[key] = entry{value: value, insertedAt: m.now()}
}

// Clear удаляет ровно один ключ.
func (m *Memory) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Resolve возвращает снимок из кэша либо загружает его через fn.
// Конкурентные промахи по одному ключу схлопываются в один вызов провайдера.
func (m *Memory) Resolve(ctx context.Context, key string, fn func(ctx context.Context) (domain.MetadataSnapshot, error)) (domain.MetadataSnapshot, error) {
	if snapshot, ok := m.Get(key); ok {
		return snapshot, nil
	}
	value, err, _ := m.group.Do(key, func() (any, error) {
		if snapshot, ok := m.Get(key); ok {
			return snapshot, nil
		}
		snapshot, err := fn(ctx)
		if err != nil {
			return domain.MetadataSnapshot{}, err
		}
		m.Set(key, snapshot)
		return snapshot, nil
	})
	if err != nil {
		return domain.MetadataSnapshot{}, err
	}
	return value.(domain.MetadataSnapshot), nil
}

// evictOldest выбрасывает запись с самой старой отметкой времени. Вызывается под мьютексом.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range m.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
		metrics.CacheEvictions.Inc()
	}
}
