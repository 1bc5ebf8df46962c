package service

import (
	"errors"
	"testing"

	"github.com/yeisme/studyvault/pkg/configs"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/types"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// TestRegisterAndLogin 测试注册登录全流程.
func TestRegisterAndLogin(t *testing.T) {
	ctx, _ := newTestContext(t)
	svc := NewAuthService(ctx)

	user, err := svc.Register(&types.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Role:     model.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Role != model.RoleTeacher {
		t.Errorf("expected teacher role, got %s", user.Role)
	}

	if user.PasswordHash == "secret1" {
		t.Error("password must not be stored in plain text")
	}

	token, logged, err := svc.Login(&types.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if logged.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, logged.ID)
	}

	claims, err := middleware.ParseToken(token, &configs.GetConfig().Auth)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.UserID != user.ID || claims.Role != model.RoleTeacher {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

// TestRegisterDefaults 测试角色默认 student 与管理员注册被拒.
func TestRegisterDefaults(t *testing.T) {
	ctx, _ := newTestContext(t)
	svc := NewAuthService(ctx)

	user, err := svc.Register(&types.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Role != model.RoleStudent {
		t.Errorf("expected default student role, got %s", user.Role)
	}

	if _, err := svc.Register(&types.RegisterRequest{
		Name:     "Eve",
		Email:    "eve@example.com",
		Password: "secret1",
		Role:     model.RoleAdmin,
	}); err == nil {
		t.Error("expected error for self-assigned admin role, got nil")
	}
}

// TestRegisterDuplicateEmail 测试重复邮箱被拒.
func TestRegisterDuplicateEmail(t *testing.T) {
	ctx, _ := newTestContext(t)
	svc := NewAuthService(ctx)

	req := &types.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"}

	if _, err := svc.Register(req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Register(req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

// TestLoginWrongPassword 测试密码错误与未知用户统一返回凭证错误.
func TestLoginWrongPassword(t *testing.T) {
	ctx, _ := newTestContext(t)
	svc := NewAuthService(ctx)

	if _, err := svc.Register(&types.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret1",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login(&types.LoginRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, _, err := svc.Login(&types.LoginRequest{Email: "ghost@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}
