package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册 Redis KV 工厂.
func init() {
	RegisterKVFactory(KVTypeRedis, func(ctx context.Context, config any) (KVStore, error) {
		cfg, ok := config.(*configs.RedisKVConfig)
		if !ok {
			return nil, fmt.Errorf("invalid redis kv config type: %T", config)
		}

		return NewRedisStore(ctx, cfg)
	})
}

// RedisStore 基于 Redis 的 KV 存储，TTL 使用 Redis 原生过期.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis KV 存储并验证连接.
func NewRedisStore(ctx context.Context, cfg *configs.RedisKVConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Set 存储键值对.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Get 获取键对应的值.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}

		return nil, err
	}

	return value, nil
}

// Delete 删除键.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Exists 检查键是否存在.
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Keys 按 glob 模式列出键.
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, pattern).Result()
}

// Ping 检查 Redis 连通性.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
