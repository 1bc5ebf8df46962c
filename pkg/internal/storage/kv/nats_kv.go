package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册 NATS KV 工厂.
func init() {
	RegisterKVFactory(KVTypeNATS, func(ctx context.Context, config any) (KVStore, error) {
		cfg, ok := config.(*configs.NATSKVConfig)
		if !ok {
			return nil, fmt.Errorf("invalid nats kv config type: %T", config)
		}

		return NewNATSStore(ctx, cfg)
	})
}

// NATSStore 基于 NATS JetStream KeyValue 的 KV 存储
// bucket 级别无按键 TTL，使用信封编码实现单键过期.
type NATSStore struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSStore 创建 NATS KV 存储，bucket 不存在时自动创建.
func NewNATSStore(_ context.Context, cfg *configs.NATSKVConfig) (*NATSStore, error) {
	opts := []nats.Option{}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to get jetstream context: %w", err)
	}

	bucket, err := js.KeyValue(cfg.Bucket)
	if err != nil {
		if !errors.Is(err, nats.ErrBucketNotFound) {
			conn.Close()

			return nil, fmt.Errorf("failed to get kv bucket: %w", err)
		}

		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: cfg.Bucket})
		if err != nil {
			conn.Close()

			return nil, fmt.Errorf("failed to create kv bucket: %w", err)
		}
	}

	return &NATSStore{conn: conn, kv: bucket}, nil
}

// Set 存储键值对.
func (n *NATSStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	_, err = n.kv.Put(key, encoded)

	return err
}

// Get 获取键对应的值，过期键惰性删除.
func (n *NATSStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}

		return nil, err
	}

	value, expired, err := decodeWithTTL(entry.Value())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(key)

		return nil, ErrKeyNotFound
	}

	return value, nil
}

// Delete 删除键.
func (n *NATSStore) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil
	}

	return err
}

// Exists 检查键是否存在且未过期.
func (n *NATSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Keys 按 glob 模式列出键.
func (n *NATSStore) Keys(_ context.Context, pattern string) ([]string, error) {
	all, err := n.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, err
	}

	keys := make([]string, 0, len(all))

	for _, key := range all {
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

// Ping 检查 NATS 连通性.
func (n *NATSStore) Ping(_ context.Context) error {
	if !n.conn.IsConnected() {
		return errors.New("nats connection is not established")
	}

	return nil
}

// Close 关闭 NATS 连接.
func (n *NATSStore) Close() error {
	n.conn.Close()

	return nil
}
