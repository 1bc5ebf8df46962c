package rule_test

import (
	"testing"

	"github.com/yeisme/studyvault/pkg/rule"
)

// registerForm 用于测试 ValidateStruct.
type registerForm struct {
	Name     string `rule:"required"`
	Email    string `rule:"required,email"`
	Password string `rule:"required,min=6"`
	Role     string `rule:"omitempty,role"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	valid := registerForm{Name: "Alice", Email: "alice@example.com", Password: "secret1", Role: "teacher"}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 缺少 Email
	missing := registerForm{Name: "Alice", Password: "secret1"}
	if err := rule.ValidateStruct(missing); err == nil {
		t.Error("Expected error for struct missing email, got nil")
	}

	// 密码过短
	short := registerForm{Name: "Alice", Email: "alice@example.com", Password: "abc"}
	if err := rule.ValidateStruct(short); err == nil {
		t.Error("Expected error for short password, got nil")
	}

	// 非法角色
	badRole := registerForm{Name: "Alice", Email: "alice@example.com", Password: "secret1", Role: "superuser"}
	if err := rule.ValidateStruct(badRole); err == nil {
		t.Error("Expected error for invalid role, got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("test@example.com", "required,email"); err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	if err := rule.ValidateVar("not-an-email", "required,email"); err == nil {
		t.Error("Expected error for invalid email, got nil")
	}
}

// TestPhoneRule 测试自定义 phone 规则.
func TestPhoneRule(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"+8613800138000", true},
		{"14155552671", true},
		{"+1", false},
		{"abc123", false},
		{"", false},
	}

	for _, tc := range cases {
		err := rule.ValidateVar(tc.value, "required,phone")
		if tc.ok && err != nil {
			t.Errorf("phone %q: expected valid, got %v", tc.value, err)
		}

		if !tc.ok && err == nil {
			t.Errorf("phone %q: expected error, got nil", tc.value)
		}
	}
}
