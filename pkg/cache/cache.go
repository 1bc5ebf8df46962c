// Package cache 基于 KV 存储提供泛型对象缓存，序列化使用 sonic.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
)

// ErrCacheMiss 缓存未命中.
var ErrCacheMiss = errors.New("cache: miss")

// Cache 泛型对象缓存，典型用途是资料详情的读缓存.
type Cache[T any] struct {
	store  kv.KVStore
	prefix string
	ttl    time.Duration
}

// New 创建对象缓存，prefix 用于隔离键空间.
func New[T any](store kv.KVStore, prefix string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		store:  store,
		prefix: prefix,
		ttl:    ttl,
	}
}

// key 拼接完整缓存键.
func (c *Cache[T]) key(k string) string {
	return c.prefix + ":" + k
}

// Get 读取缓存对象，未命中返回 ErrCacheMiss.
func (c *Cache[T]) Get(ctx context.Context, k string) (T, error) {
	var value T

	data, err := c.store.Get(ctx, c.key(k))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return value, ErrCacheMiss
		}

		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, err
	}

	return value, nil
}

// Set 写入缓存对象.
func (c *Cache[T]) Set(ctx context.Context, k string, value T) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, c.key(k), data, c.ttl)
}

// Delete 删除缓存对象.
func (c *Cache[T]) Delete(ctx context.Context, k string) error {
	return c.store.Delete(ctx, c.key(k))
}

// GetOrSet 读取缓存，未命中时调用 loader 加载并回填.
func (c *Cache[T]) GetOrSet(ctx context.Context, k string, loader func(ctx context.Context) (T, error)) (T, error) {
	value, err := c.Get(ctx, k)
	if err == nil {
		return value, nil
	}

	if !errors.Is(err, ErrCacheMiss) {
		return value, err
	}

	value, err = loader(ctx)
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, k, value); err != nil {
		return value, err
	}

	return value, nil
}
