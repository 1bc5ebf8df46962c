// Package mq 提供基于 Watermill 的消息队列抽象，支持 NATS JetStream 和 Redis Stream 后端.
package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/studyvault/pkg/configs"
)

// Client 消息队列客户端接口.
type Client interface {
	// Publisher 返回 Watermill 发布者.
	Publisher() message.Publisher
	// Subscriber 返回 Watermill 订阅者.
	Subscriber() message.Subscriber
	// Publish 发布消息到指定主题.
	Publish(topic string, messages ...*message.Message) error
	// Subscribe 订阅指定主题.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close 关闭连接.
	Close() error
}

// Factory 定义创建 MQ 客户端的函数类型.
type Factory func(cfg *configs.MQConfig) (Client, error)

var (
	factories = map[configs.MQType]Factory{}
	factoryMu sync.RWMutex
)

// RegisterMQFactory 注册 MQ 后端工厂函数.
func RegisterMQFactory(mqType configs.MQType, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[mqType] = factory
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型列表.
func GetRegisteredMQTypes() []configs.MQType {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	return types
}

// NewMQClient 按配置创建 MQ 客户端.
func NewMQClient(cfg *configs.MQConfig) (Client, error) {
	factoryMu.RLock()
	factory, exists := factories[cfg.Type]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	return factory(cfg)
}

// baseClient 聚合发布者与订阅者，提供各后端共用的收发实现.
type baseClient struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func (c *baseClient) Publisher() message.Publisher {
	return c.publisher
}

func (c *baseClient) Subscriber() message.Subscriber {
	return c.subscriber
}

func (c *baseClient) Publish(topic string, messages ...*message.Message) error {
	return c.publisher.Publish(topic, messages...)
}

func (c *baseClient) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return c.subscriber.Subscribe(ctx, topic)
}

func (c *baseClient) Close() error {
	if err := c.publisher.Close(); err != nil {
		return err
	}

	return c.subscriber.Close()
}
