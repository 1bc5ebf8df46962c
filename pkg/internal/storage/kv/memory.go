package kv

import (
	"context"
	"path"
	"sync"
	"time"
)

// init 注册内存 KV 工厂.
func init() {
	RegisterKVFactory(KVTypeMemory, func(_ context.Context, _ any) (KVStore, error) {
		return NewMemoryStore(), nil
	})
}

// MemoryStore 进程内 KV 存储，适合单实例部署和测试.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore 创建内存 KV 存储.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Set 存储键值对，TTL 通过信封编码实现.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = encoded

	return nil
}

// Get 获取键对应的值，过期键惰性删除.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	value, expired, err := decodeWithTTL(raw)
	if err != nil {
		return nil, err
	}

	if expired {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()

		return nil, ErrKeyNotFound
	}

	return value, nil
}

// Delete 删除键.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Keys 按 glob 模式列出键.
func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))

	for key := range m.data {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}

		if matched {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Ping 内存存储始终可用.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close 清空存储.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)

	return nil
}
