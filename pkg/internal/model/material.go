package model

import (
	"time"

	"gorm.io/gorm"
)

// Material 学习资料条目，可挂一个附件.
type Material struct {
	ID          uint   `gorm:"primaryKey"            json:"id"`
	OwnerID     uint   `gorm:"not null;index"        json:"owner_id"`
	Title       string `gorm:"size:255;not null"     json:"title"`
	Description string `gorm:"type:text"             json:"description"`
	Subject     string `gorm:"size:128;index"        json:"subject"`
	Price       int64  `gorm:"not null;default:0"    json:"price"` // 单位：分

	// 附件信息，未上传附件时为空
	FileName    string `gorm:"size:255"  json:"file_name,omitempty"`
	FilePath    string `gorm:"size:512"  json:"-"`                  // 本地磁盘路径
	ObjectKey   string `gorm:"size:512"  json:"-"`                  // S3 对象键
	Bucket      string `gorm:"size:128"  json:"-"`
	FileURL     string `gorm:"size:512"  json:"file_url,omitempty"`
	FileSize    int64  `gorm:"not null;default:0" json:"file_size,omitempty"`
	ContentType string `gorm:"size:128"  json:"content_type,omitempty"`

	DownloadCount int64 `gorm:"not null;default:0" json:"download_count"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasFile 是否已上传附件.
func (m *Material) HasFile() bool {
	return m.FilePath != "" || m.ObjectKey != ""
}
