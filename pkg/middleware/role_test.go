package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestParseRole 测试角色名解析.
func TestParseRole(t *testing.T) {
	cases := []struct {
		name string
		want Role
	}{
		{"student", RoleStudent},
		{"teacher", RoleTeacher},
		{"admin", RoleAdmin},
		{"unknown", RoleStudent},
		{"", RoleStudent},
	}

	for _, tc := range cases {
		if got := ParseRole(tc.name); got != tc.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestRoleOrdering 测试角色权限顺序.
func TestRoleOrdering(t *testing.T) {
	if !(RoleStudent < RoleTeacher && RoleTeacher < RoleAdmin) {
		t.Error("expected student < teacher < admin")
	}
}

// TestRequireRole 测试角色中间件的放行与拒绝.
func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		role       string
		minRole    Role
		wantStatus int
	}{
		{"admin", RoleAdmin, http.StatusOK},
		{"teacher", RoleAdmin, http.StatusForbidden},
		{"teacher", RoleTeacher, http.StatusOK},
		{"student", RoleTeacher, http.StatusForbidden},
		{"student", RoleStudent, http.StatusOK},
	}

	for _, tc := range cases {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(CtxRoleKey, tc.role)
		})
		router.GET("/t", RequireRole(tc.minRole), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		router.ServeHTTP(w, req)

		if w.Code != tc.wantStatus {
			t.Errorf("role=%s min=%v: got status %d, want %d", tc.role, tc.minRole, w.Code, tc.wantStatus)
		}
	}
}

// TestRequireRoleWithoutAuth 测试未认证请求被拒绝.
func TestRequireRoleWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/t", RequireRole(RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("got status %d, want %d", w.Code, http.StatusForbidden)
	}
}
