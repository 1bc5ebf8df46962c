package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// registerDeliveryRoutes 注册投递路由.
func registerDeliveryRoutes(api *gin.RouterGroup) {
	deliveries := api.Group("/deliveries", middleware.AuthRequired())
	{
		deliveries.GET("", handle.ListDeliveries)
		deliveries.GET("/:id", handle.GetDelivery)
		deliveries.POST("/:id/cancel", handle.CancelDelivery)

		admin := deliveries.Group("", middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.PUT("/:id", handle.UpdateDelivery)
			admin.DELETE("/:id", handle.DeleteDelivery)
		}
	}
}
