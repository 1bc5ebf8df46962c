// Package queue 定义应用事件的信封格式、主题常量和发布辅助函数.
package queue

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// producerName 事件生产者标识.
const producerName = "studyvault"

// NewEventHeader 创建事件头部.
func NewEventHeader(eventType string) EventHeader {
	return EventHeader{
		ID:        uuid.NewString(),
		Source:    producerName,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// Encode 序列化事件信封.
func Encode[T any](msg Message[T]) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", msg.Header.Type, err)
	}

	return data, nil
}

// Decode 反序列化事件信封.
func Decode[T any](data []byte) (Message[T], error) {
	var msg Message[T]
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode event: %w", err)
	}

	return msg, nil
}

// NewWatermillMessage 把事件信封包装为 Watermill 消息.
func NewWatermillMessage[T any](eventType string, payload T) (*message.Message, error) {
	envelope := Message[T]{
		Header:  NewEventHeader(eventType),
		Payload: payload,
	}

	data, err := Encode(envelope)
	if err != nil {
		return nil, err
	}

	wm := message.NewMessage(envelope.Header.ID, data)
	wm.Metadata.Set("type", eventType)
	wm.Metadata.Set("source", producerName)

	return wm, nil
}

// ParseWatermillMessage 解析 Watermill 消息为事件信封.
func ParseWatermillMessage[T any](wm *message.Message) (Message[T], error) {
	return Decode[T](wm.Payload)
}
