package mq

import (
	"fmt"
	"time"

	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// init 注册 NATS MQ 工厂.
func init() {
	RegisterMQFactory(configs.MQTypeNATS, NewNATSClient)
}

// natsClient 基于 NATS 的 MQ 客户端，可选 JetStream 持久化.
type natsClient struct {
	baseClient
}

// buildNATSOptions 根据配置构建 NATS 连接选项.
func buildNATSOptions(cfg *configs.MQConfig) []nats.Option {
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
		nats.MaxPingsOutstanding(cfg.MaxPingsOut),
		nats.PingInterval(time.Duration(cfg.PingInterval) * time.Second),
		nats.ReconnectBufSize(cfg.BufferSize),
	}

	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	if cfg.JWT != "" && cfg.NKey != "" {
		opts = append(opts, nats.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	}

	return opts
}

// NewNATSClient 创建 NATS MQ 客户端.
func NewNATSClient(cfg *configs.MQConfig) (Client, error) {
	logger := NewZerologAdapter(*nlog.Logger())
	marshaler := &wmnats.NATSMarshaler{}
	options := buildNATSOptions(cfg)

	jsConfig := wmnats.JetStreamConfig{
		Disabled:      !cfg.JetStreamEnabled,
		AutoProvision: cfg.JetStreamAutoProvision,
		TrackMsgId:    cfg.JetStreamTrackMsgID,
		AckAsync:      cfg.JetStreamAckAsync,
		DurablePrefix: cfg.JetStreamDurablePrefix,
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: options,
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:         cfg.URL,
		NatsOptions: options,
		Unmarshaler: marshaler,
		JetStream:   jsConfig,
	}, logger)
	if err != nil {
		_ = publisher.Close()

		return nil, fmt.Errorf("failed to create nats subscriber: %w", err)
	}

	return &natsClient{baseClient{publisher: publisher, subscriber: subscriber}}, nil
}
