package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/handle"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// materialListCacheTTL 公开资料列表的响应缓存时间.
const materialListCacheTTL = 30 * time.Second

// materialListCache 公开列表的响应缓存，存储未初始化时直通.
func materialListCache() gin.HandlerFunc {
	m := storage.GetManager()
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return middleware.ResponseCacheMiddleware(middleware.CacheConfig{
		Store:     m.GetKVClient(),
		TTL:       materialListCacheTTL,
		KeyPrefix: "respcache:materials",
	})
}

// registerMaterialRoutes 注册资料路由，下载接口凭令牌访问无需登录.
func registerMaterialRoutes(api *gin.RouterGroup) {
	materials := api.Group("/materials")
	{
		materials.GET("", materialListCache(), handle.ListMaterials)
		materials.GET("/:id", handle.GetMaterial)
		materials.GET("/:id/download", handle.DownloadMaterial)

		authed := materials.Group("", middleware.AuthRequired())
		{
			authed.PUT("/:id", handle.UpdateMaterial)
			authed.DELETE("/:id", handle.DeleteMaterial)
			authed.POST("/:id/file", handle.UploadMaterialFile)

			// 建档与投递仅对 teacher 及以上开放
			teacher := authed.Group("", middleware.RequireRole(middleware.RoleTeacher))
			{
				teacher.POST("", handle.CreateMaterial)
				teacher.POST("/:id/deliver/email", handle.DeliverEmail)
				teacher.POST("/:id/deliver/whatsapp", handle.DeliverWhatsApp)
			}
		}
	}
}
