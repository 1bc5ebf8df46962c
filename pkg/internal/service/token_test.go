package service

import (
	"encoding/hex"
	"strings"
	"testing"
)

// TestNewDeliveryToken 测试令牌长度与十六进制编码.
func TestNewDeliveryToken(t *testing.T) {
	token, err := newDeliveryToken()
	if err != nil {
		t.Fatalf("newDeliveryToken failed: %v", err)
	}

	if len(token) != 64 {
		t.Errorf("expected 64-char token, got %d", len(token))
	}

	if _, err := hex.DecodeString(token); err != nil {
		t.Errorf("token is not valid hex: %v", err)
	}
}

// TestNewDeliveryTokenUnique 测试连续生成不重复.
func TestNewDeliveryTokenUnique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, err := newDeliveryToken()
		if err != nil {
			t.Fatalf("newDeliveryToken failed: %v", err)
		}

		if seen[token] {
			t.Fatal("duplicate token generated")
		}

		seen[token] = true
	}
}

// TestNewDeliveryID 测试投递标识的前缀与唯一性.
func TestNewDeliveryID(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := newDeliveryID()

		if !strings.HasPrefix(id, "dl_") {
			t.Fatalf("expected dl_ prefix, got %s", id)
		}

		if seen[id] {
			t.Fatal("duplicate delivery id generated")
		}

		seen[id] = true
	}
}

// TestNewVerificationCode 测试验证码为 6 位数字.
func TestNewVerificationCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := newVerificationCode()
		if err != nil {
			t.Fatalf("newVerificationCode failed: %v", err)
		}

		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}

		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}
