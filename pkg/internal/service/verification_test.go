package service

import (
	"errors"
	"testing"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
)

// TestSendAndVerifyCode 测试验证码发送与校验.
func TestSendAndVerifyCode(t *testing.T) {
	ctx, console := newTestContext(t)
	user := seedUser(t, ctx, "Alice", "alice@example.com", model.RoleStudent)

	svc := NewVerificationService(ctx)
	phone := "+8613800138000"

	if err := svc.SendCode(phone); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}

	texts := console.SentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 sent text, got %d", len(texts))
	}

	// 从 KV 里取实际验证码
	stored, err := svc.kv.Get(ctx, codeKey(phone))
	if err != nil {
		t.Fatalf("failed to read stored code: %v", err)
	}

	if err := svc.VerifyCode(user.ID, phone, string(stored)); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	var updated model.User
	if err := appctx.GetDBClient(ctx).First(&updated, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}

	if !updated.PhoneVerified || updated.Phone != phone {
		t.Errorf("expected verified phone %s, got %+v", phone, updated)
	}

	// 验证码一次性使用
	if err := svc.VerifyCode(user.ID, phone, string(stored)); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode on reuse, got %v", err)
	}
}

// TestVerifyCodeWrong 测试错误验证码.
func TestVerifyCodeWrong(t *testing.T) {
	ctx, _ := newTestContext(t)
	user := seedUser(t, ctx, "Alice", "alice@example.com", model.RoleStudent)

	svc := NewVerificationService(ctx)
	phone := "+8613800138000"

	if err := svc.SendCode(phone); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}

	if err := svc.VerifyCode(user.ID, phone, "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}
