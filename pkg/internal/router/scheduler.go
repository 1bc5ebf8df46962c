package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// registerSchedulerRoutes 注册后台任务运维路由，仅管理员可用.
func registerSchedulerRoutes(api *gin.RouterGroup) {
	scheduler := api.Group("/scheduler", middleware.AuthRequired(), middleware.RequireRole(middleware.RoleAdmin))
	{
		scheduler.GET("/jobs", handle.ListJobs)
		scheduler.POST("/sweep", handle.SweepExpiredDeliveries)
	}
}
