package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// Memory 进程内缓存实现
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]*memoryEntry
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemory 创建新的内存缓存提供者
func NewMemory() *Memory {
	m := &Memory{
		entries:  make(map[string]*memoryEntry),
		stopChan: make(chan struct{}),
	}

	// 后台清理过期条目
	go m.cleanupLoop()

	return m
}

// Set 设置缓存项
func (m *Memory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	entry := &memoryEntry{data: data}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Get 获取缓存项
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if !found || entry.expired() {
		return ErrCacheMiss
	}

	return json.Unmarshal(entry.data, dest)
}

// Delete 删除缓存项
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Exists 检查缓存项是否存在
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()
	return found && !entry.expired(), nil
}

// Close 关闭缓存
func (m *Memory) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	return nil
}

// Name 返回缓存提供者名称
func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for key, entry := range m.entries {
				if entry.expired() {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		case <-m.stopChan:
			return
		}
	}
}
