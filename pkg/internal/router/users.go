package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// registerUserRoutes 注册用户路由.
func registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/users", middleware.AuthRequired())
	{
		users.GET("/me", handle.GetMe)
		users.PUT("/me/password", handle.UpdatePassword)
		users.GET("/:id", handle.GetUser)
		users.PUT("/:id", handle.UpdateUser)

		admin := users.Group("", middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.GET("", handle.ListUsers)
			admin.PUT("/:id/role", handle.UpdateUserRole)
			admin.DELETE("/:id", handle.DeleteUser)
		}
	}
}
