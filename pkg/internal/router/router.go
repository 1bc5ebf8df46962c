// Package router 注册 API 路由.
package router

import (
	"github.com/gin-gonic/gin"
)

// routeRegistrar 各业务模块的路由注册函数.
type routeRegistrar func(*gin.RouterGroup)

// registrars 按模块收集路由注册函数.
var registrars = []routeRegistrar{
	registerHealthRoutes,
	registerAuthRoutes,
	registerUserRoutes,
	registerMaterialRoutes,
	registerDeliveryRoutes,
	registerSchedulerRoutes,
}

// RegisterAPIRoutes 注册 /api/v1 下的所有路由.
func RegisterAPIRoutes(engine *gin.Engine) {
	api := engine.Group("/api/v1")

	for _, register := range registrars {
		register(api)
	}
}
