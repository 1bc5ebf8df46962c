package queue

import "time"

// EventHeader 事件公共头部.
type EventHeader struct {
	ID        string    `json:"id"`        // 事件唯一标识（UUID）
	Source    string    `json:"source"`    // 事件生产者
	Type      string    `json:"type"`      // 事件类型（主题名）
	Timestamp time.Time `json:"timestamp"` // 事件产生时间
}

// Message 泛型事件信封.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// DeliveryEventPayload 投递事件负载.
type DeliveryEventPayload struct {
	DeliveryID string `json:"delivery_id"`
	MaterialID uint   `json:"material_id"`
	UserID     uint   `json:"user_id"`
	Method     string `json:"method"`
	Address    string `json:"address"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// MaterialEventPayload 资料事件负载.
type MaterialEventPayload struct {
	MaterialID uint   `json:"material_id"`
	OwnerID    uint   `json:"owner_id"`
	FileName   string `json:"file_name,omitempty"`
	DeliveryID string `json:"delivery_id,omitempty"`
}

// UserEventPayload 用户事件负载.
type UserEventPayload struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
