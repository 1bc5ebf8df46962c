package kv

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册 Groupcache KV 工厂.
func init() {
	RegisterKVFactory(KVTypeGroupcache, func(_ context.Context, config any) (KVStore, error) {
		cfg, ok := config.(*configs.GroupcacheKVConfig)
		if !ok {
			return nil, fmt.Errorf("invalid groupcache kv config type: %T", config)
		}

		return NewGroupcacheStore(cfg)
	})
}

// GroupcacheStore 基于 groupcache 的分布式只读缓存
// 写入落在本地 backing map，读经由 group 可被对等节点分担
// Delete 只移除本地副本，对等节点缓存待自然淘汰.
type GroupcacheStore struct {
	group *groupcache.Group

	mu      sync.RWMutex
	backing map[string][]byte
	pool    *groupcache.HTTPPool
}

// NewGroupcacheStore 创建 Groupcache KV 存储.
func NewGroupcacheStore(cfg *configs.GroupcacheKVConfig) (*GroupcacheStore, error) {
	store := &GroupcacheStore{
		backing: make(map[string][]byte),
	}

	if cfg.Self != "" {
		store.pool = groupcache.NewHTTPPool(cfg.Self)
		if len(cfg.Peers) > 0 {
			store.pool.Set(cfg.Peers...)
		}
	}

	store.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, groupcache.GetterFunc(
		func(_ context.Context, key string, dest groupcache.Sink) error {
			store.mu.RLock()
			raw, ok := store.backing[key]
			store.mu.RUnlock()

			if !ok {
				return ErrKeyNotFound
			}

			return dest.SetBytes(raw)
		},
	))

	return store, nil
}

// Set 存储键值对.
func (g *GroupcacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.backing[key] = encoded

	return nil
}

// Get 获取键对应的值，过期键惰性删除.
func (g *GroupcacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		return nil, ErrKeyNotFound
	}

	value, expired, err := decodeWithTTL(raw)
	if err != nil {
		return nil, err
	}

	if expired {
		g.mu.Lock()
		delete(g.backing, key)
		g.mu.Unlock()

		return nil, ErrKeyNotFound
	}

	return value, nil
}

// Delete 删除本地键.
func (g *GroupcacheStore) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.backing, key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (g *GroupcacheStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Keys 按 glob 模式列出本地键.
func (g *GroupcacheStore) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.backing))

	for key := range g.backing {
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

// Ping 本地存储始终可用.
func (g *GroupcacheStore) Ping(_ context.Context) error {
	return nil
}

// Close 清空本地存储.
func (g *GroupcacheStore) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.backing = make(map[string][]byte)

	return nil
}
