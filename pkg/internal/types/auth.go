// Package types 定义 API 的请求与响应结构.
package types

// RegisterRequest 用户注册请求.
type RegisterRequest struct {
	Name     string `json:"name"     rule:"required,max=128"`
	Email    string `json:"email"    rule:"required,email"`
	Password string `json:"password" rule:"required,min=6,max=72"`
	Role     string `json:"role"     rule:"omitempty,role"`
	Phone    string `json:"phone"    rule:"omitempty,phone"`
}

// LoginRequest 用户登录请求.
type LoginRequest struct {
	Email    string `json:"email"    rule:"required,email"`
	Password string `json:"password" rule:"required"`
}

// LoginResponse 登录响应.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdatePasswordRequest 修改密码请求.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" rule:"required"`
	NewPassword string `json:"new_password" rule:"required,min=6,max=72"`
}

// SendVerificationRequest 发送手机验证码请求.
type SendVerificationRequest struct {
	Phone string `json:"phone" rule:"required,phone"`
}

// VerifyPhoneRequest 校验手机验证码请求.
type VerifyPhoneRequest struct {
	Phone string `json:"phone" rule:"required,phone"`
	Code  string `json:"code"  rule:"required,len=6,numeric"`
}
