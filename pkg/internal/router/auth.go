package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// registerAuthRoutes 注册认证路由.
func registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", handle.Register)
		auth.POST("/login", handle.Login)

		auth.POST("/logout", middleware.AuthRequired(), handle.Logout)

		verify := auth.Group("/verify", middleware.AuthRequired())
		{
			verify.POST("/send", handle.SendVerification)
			verify.POST("", handle.VerifyPhone)
		}
	}
}
