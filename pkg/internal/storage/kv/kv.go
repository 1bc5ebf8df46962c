// Package kv 提供统一的键值存储抽象，支持 memory/redis/nats/groupcache 多种后端.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeisme/studyvault/pkg/configs"
)

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("kv: key not found")

// KVStore 键值存储接口，所有后端实现此接口.
// ttl 为 0 表示不过期.
type KVStore interface {
	// Set 存储键值对，ttl 为 0 表示永不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get 获取键对应的值，键不存在或已过期返回 ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 模式列出键.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Ping 检查后端连通性.
	Ping(ctx context.Context) error
	// Close 关闭连接并释放资源.
	Close() error
}

// Factory 定义创建 KVStore 的函数类型，config 为各后端的子配置.
type Factory func(ctx context.Context, config any) (KVStore, error)

var (
	factories = map[KVType]Factory{}
	factoryMu sync.RWMutex
)

// RegisterKVFactory 注册 KV 后端工厂函数.
func RegisterKVFactory(kvType KVType, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表.
func GetRegisteredKVTypes() []KVType {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	types := make([]KVType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	return types
}

// NewKVClient 按配置创建 KV 客户端，分发各后端的子配置.
func NewKVClient(ctx context.Context, cfg *configs.KVConfig) (KVStore, error) {
	kvType := KVType(cfg.Type)

	factoryMu.RLock()
	factory, exists := factories[kvType]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported kv type: %s", cfg.Type)
	}

	var sub any

	switch kvType {
	case KVTypeMemory:
		sub = nil
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	return factory(ctx, sub)
}
