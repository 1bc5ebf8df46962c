package model

import (
	"time"

	"gorm.io/gorm"
)

// 投递状态.
const (
	DeliveryStatusPending    = "pending"    // 已创建，待外发
	DeliveryStatusProcessing = "processing" // 外发中
	DeliveryStatusDelivered  = "delivered"  // 已送达（外发成功或已被下载）
	DeliveryStatusFailed     = "failed"     // 外发失败
	DeliveryStatusCancelled  = "cancelled"  // 已取消
	DeliveryStatusExpired    = "expired"    // 令牌过期，终态
)

// 投递渠道.
const (
	DeliveryMethodEmail    = "email"
	DeliveryMethodWhatsApp = "whatsapp"
)

// Delivery 资料投递记录，持有限时下载令牌.
type Delivery struct {
	ID         uint   `gorm:"primaryKey"                    json:"-"`
	DeliveryID string `gorm:"size:32;uniqueIndex;not null"  json:"delivery_id"`
	MaterialID uint   `gorm:"not null;index"                json:"material_id"`
	UserID     uint   `gorm:"not null;index"                json:"user_id"` // 接收者
	SenderID   uint   `gorm:"not null"                      json:"sender_id"`
	Method     string `gorm:"size:16;not null"              json:"method"`
	Address    string `gorm:"size:255;not null"             json:"address"` // 邮箱或手机号
	Status     string `gorm:"size:16;not null;default:pending;index" json:"status"`

	// Token 64 位十六进制下载令牌
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null"                     json:"expires_at"`

	DownloadCount    int64      `gorm:"not null;default:0" json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	ErrorMessage     string     `gorm:"size:512" json:"error_message,omitempty"`

	// 创建投递时的请求上下文，便于审计
	IPAddress string `gorm:"size:64"  json:"-"`
	UserAgent string `gorm:"size:255" json:"-"`

	Material *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	User     *User     `gorm:"foreignKey:UserID"     json:"user,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal 是否处于终态，终态投递不再参与去重检查.
func (d *Delivery) IsTerminal() bool {
	return d.Status == DeliveryStatusCancelled || d.Status == DeliveryStatusExpired
}

// IsExpired 令牌是否已过期.
func (d *Delivery) IsExpired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
