package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role 用户角色，数值越大权限越高.
type Role int

const (
	RoleStudent Role = iota
	RoleTeacher
	RoleAdmin
)

// roleNames 角色名到 Role 的映射.
var roleNames = map[string]Role{
	"student": RoleStudent,
	"teacher": RoleTeacher,
	"admin":   RoleAdmin,
}

// String 返回角色名.
func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return "student"
	}
}

// ParseRole 解析角色名，未知角色按最低权限处理.
func ParseRole(name string) Role {
	if r, ok := roleNames[name]; ok {
		return r
	}

	return RoleStudent
}

// GetUserID 从 gin context 取当前用户 ID，未认证返回 0.
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(CtxUserIDKey); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}

	return 0
}

// GetRole 从 gin context 取当前用户角色.
func GetRole(c *gin.Context) Role {
	if v, exists := c.Get(CtxRoleKey); exists {
		if name, ok := v.(string); ok {
			return ParseRole(name)
		}
	}

	return RoleStudent
}

// RequireRole 要求当前用户角色不低于 minRole，需在 AuthRequired 之后使用.
func RequireRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient permissions",
			})

			return
		}

		c.Next()
	}
}
