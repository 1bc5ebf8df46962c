package types

import "time"

// UserResponse 用户信息响应.
type UserResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// UpdateUserRequest 更新用户资料请求.
type UpdateUserRequest struct {
	Name  string `json:"name"  rule:"omitempty,max=128"`
	Phone string `json:"phone" rule:"omitempty,phone"`
}

// UpdateUserRoleRequest 管理员修改用户角色请求.
type UpdateUserRoleRequest struct {
	Role string `json:"role" rule:"required,role"`
}

// ListQuery 通用分页查询参数.
type ListQuery struct {
	Page     int `form:"page"      rule:"omitempty,min=1"`
	PageSize int `form:"page_size" rule:"omitempty,min=1,max=100"`
}

// Normalize 填充分页默认值.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}

	if q.PageSize < 1 {
		q.PageSize = 20
	}
}

// Offset 返回分页偏移.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// PagedResponse 分页响应.
type PagedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
