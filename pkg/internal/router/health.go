package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
)

// registerHealthRoutes 注册健康检查路由.
func registerHealthRoutes(api *gin.RouterGroup) {
	health := api.Group("/health")
	{
		health.GET("", handle.Health)
		health.GET("/ping", handle.Ping)
	}
}
