package mq

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// init 注册 Redis MQ 工厂.
func init() {
	RegisterMQFactory(configs.MQTypeRedis, NewRedisClient)
}

// redisClient 基于 Redis Stream 的 MQ 客户端.
type redisClient struct {
	baseClient

	rdb *redis.Client
}

// NewRedisClient 创建 Redis Stream MQ 客户端.
func NewRedisClient(cfg *configs.MQConfig) (Client, error) {
	logger := NewZerologAdapter(*nlog.Logger())

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        rdb,
		ConsumerGroup: cfg.ClientID,
	}, logger)
	if err != nil {
		_ = publisher.Close()

		return nil, fmt.Errorf("failed to create redis subscriber: %w", err)
	}

	return &redisClient{
		baseClient: baseClient{publisher: publisher, subscriber: subscriber},
		rdb:        rdb,
	}, nil
}

// Close 关闭发布者、订阅者和底层 Redis 连接.
func (c *redisClient) Close() error {
	if err := c.baseClient.Close(); err != nil {
		return err
	}

	return c.rdb.Close()
}
