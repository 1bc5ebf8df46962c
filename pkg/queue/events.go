package queue

import (
	"context"

	appctx "github.com/yeisme/studyvault/pkg/context"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// publish 发布事件，MQ 未启用时静默跳过，发布失败只记录日志不影响主流程.
func publish[T any](ctx context.Context, topic string, payload T) {
	client := appctx.GetMQClient(ctx)
	if client == nil {
		return
	}

	wm, err := NewWatermillMessage(topic, payload)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("topic", topic).Msg("failed to build event message")

		return
	}

	if err := client.Publish(topic, wm); err != nil {
		nlog.Logger().Error().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

// PublishDeliveryRequested 发布投递创建事件.
func PublishDeliveryRequested(ctx context.Context, payload DeliveryEventPayload) {
	publish(ctx, TopicDeliveryRequested, payload)
}

// PublishDeliveryDispatched 发布投递外发成功事件.
func PublishDeliveryDispatched(ctx context.Context, payload DeliveryEventPayload) {
	publish(ctx, TopicDeliveryDispatched, payload)
}

// PublishDeliveryFailed 发布投递外发失败事件.
func PublishDeliveryFailed(ctx context.Context, payload DeliveryEventPayload) {
	publish(ctx, TopicDeliveryFailed, payload)
}

// PublishMaterialUploaded 发布资料上传事件.
func PublishMaterialUploaded(ctx context.Context, payload MaterialEventPayload) {
	publish(ctx, TopicMaterialUploaded, payload)
}

// PublishMaterialDownloaded 发布资料下载事件.
func PublishMaterialDownloaded(ctx context.Context, payload MaterialEventPayload) {
	publish(ctx, TopicMaterialDownloaded, payload)
}

// PublishUserRegistered 发布用户注册事件.
func PublishUserRegistered(ctx context.Context, payload UserEventPayload) {
	publish(ctx, TopicUserRegistered, payload)
}
