// Package api 将业务路由挂载到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/router"
)

// RegisterRoutes 注册所有业务路由与 Swagger 文档路由.
func RegisterRoutes(e *gin.Engine) *gin.Engine {
	router.RegisterAPIRoutes(e)
	router.RegisterSwaggerRoute(e)

	return e
}
