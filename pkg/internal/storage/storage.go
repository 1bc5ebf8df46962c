// Package storage 统一初始化和管理数据库、KV、对象存储与消息队列客户端.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/yeisme/studyvault/pkg/configs"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
	"github.com/yeisme/studyvault/pkg/internal/storage/mq"
	"github.com/yeisme/studyvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// Manager 聚合各存储客户端
// DB 与 KV 为必需组件，S3 与 MQ 按配置可选.
type Manager struct {
	DB *db.Client
	KV kv.KVStore
	S3 *s3.Client
	MQ mq.Client
}

var (
	manager  *Manager
	initOnce sync.Once
)

// InitStorage 初始化所有存储客户端，幂等.
func InitStorage(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	var initErr error

	initOnce.Do(func() {
		manager, initErr = newManager(ctx, cfg)
	})

	if initErr != nil {
		return nil, initErr
	}

	return manager, nil
}

// GetManager 返回全局存储管理器，未初始化时返回 nil.
func GetManager() *Manager {
	return manager
}

// newManager 按配置创建各客户端.
func newManager(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	l := nlog.Logger()

	dbClient, err := db.New(ctx, &cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	kvClient, err := kv.NewKVClient(ctx, &cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("failed to init kv store: %w", err)
	}

	m := &Manager{DB: dbClient, KV: kvClient}

	// S3 可选：未启用时附件落本地磁盘
	if cfg.S3.Enabled {
		s3Client, err := s3.New(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 storage: %w", err)
		}

		m.S3 = s3Client
	} else {
		l.Info().Msg("s3 storage disabled, attachments stored on local disk")
	}

	// MQ 可选：事件发布尽力而为
	if cfg.MQ.Enabled {
		mqClient, err := mq.NewMQClient(&cfg.MQ)
		if err != nil {
			return nil, fmt.Errorf("failed to init message queue: %w", err)
		}

		m.MQ = mqClient
	}

	return m, nil
}

// GetDBClient 返回数据库客户端.
func (m *Manager) GetDBClient() *db.Client {
	return m.DB
}

// GetKVClient 返回 KV 客户端.
func (m *Manager) GetKVClient() kv.KVStore {
	return m.KV
}

// GetS3Client 返回 S3 客户端，未启用时为 nil.
func (m *Manager) GetS3Client() *s3.Client {
	return m.S3
}

// GetMQClient 返回 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() mq.Client {
	return m.MQ
}

// Close 依次关闭各客户端.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		if err := m.MQ.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mq: %w", err))
		}
	}

	if m.KV != nil {
		if err := m.KV.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kv: %w", err))
		}
	}

	if m.DB != nil {
		if sqlDB, err := m.DB.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close db: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("storage close errors: %v", errs)
	}

	return nil
}
