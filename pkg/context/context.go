// Package context 提供在 context.Context 中携带存储管理器与通知分发器的类型安全访问器.
package context

import (
	"context"

	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
	"github.com/yeisme/studyvault/pkg/internal/storage/mq"
	"github.com/yeisme/studyvault/pkg/internal/storage/s3"
)

// contextKey 避免与其他包的 context key 冲突.
type contextKey string

const (
	storageManagerKey contextKey = "storage_manager"
	notifierKey       contextKey = "notifier"
)

// WithStorageManager 把存储管理器注入 context.
func WithStorageManager(ctx context.Context, m *storage.Manager) context.Context {
	return context.WithValue(ctx, storageManagerKey, m)
}

// GetStorageManager 从 context 取存储管理器，取不到时回退到全局管理器.
func GetStorageManager(ctx context.Context) *storage.Manager {
	if m, ok := ctx.Value(storageManagerKey).(*storage.Manager); ok {
		return m
	}

	return storage.GetManager()
}

// GetDBClient 从 context 取数据库客户端.
func GetDBClient(ctx context.Context) *db.Client {
	if m := GetStorageManager(ctx); m != nil {
		return m.GetDBClient()
	}

	return nil
}

// GetKVClient 从 context 取 KV 客户端.
func GetKVClient(ctx context.Context) kv.KVStore {
	if m := GetStorageManager(ctx); m != nil {
		return m.GetKVClient()
	}

	return nil
}

// GetS3Client 从 context 取 S3 客户端，未启用时为 nil.
func GetS3Client(ctx context.Context) *s3.Client {
	if m := GetStorageManager(ctx); m != nil {
		return m.GetS3Client()
	}

	return nil
}

// GetMQClient 从 context 取 MQ 客户端，未启用时为 nil.
func GetMQClient(ctx context.Context) mq.Client {
	if m := GetStorageManager(ctx); m != nil {
		return m.GetMQClient()
	}

	return nil
}

// WithNotifier 把通知分发器注入 context.
func WithNotifier(ctx context.Context, n notify.Dispatcher) context.Context {
	return context.WithValue(ctx, notifierKey, n)
}

// GetNotifier 从 context 取通知分发器，取不到时返回 nil.
func GetNotifier(ctx context.Context) notify.Dispatcher {
	if n, ok := ctx.Value(notifierKey).(notify.Dispatcher); ok {
		return n
	}

	return nil
}
