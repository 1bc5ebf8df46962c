// Package model 定义数据库实体.
package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User 用户账户.
type User struct {
	ID           uint   `gorm:"primaryKey"                  json:"id"`
	Name         string `gorm:"size:128;not null"           json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null"           json:"-"`
	Role         string `gorm:"size:16;not null;default:student;index" json:"role"`
	Phone        string `gorm:"size:32"                     json:"phone,omitempty"`
	PhoneVerified bool  `gorm:"not null;default:false"      json:"phone_verified"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin 是否管理员.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
