// Package handle 实现 HTTP 处理器，统一使用 success/error 响应信封.
package handle

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/middleware"
)

// ok 成功响应信封.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// fail 失败响应信封.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

// currentUser 取当前认证用户的 ID 与角色.
func currentUser(c *gin.Context) (uint, middleware.Role) {
	return middleware.GetUserID(c), middleware.GetRole(c)
}
