package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器与通知分发器注入请求 context，
// service 层通过 pkg/context 的访问器获取.
func StorageMiddleware(m *storage.Manager, notifier notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := appctx.WithStorageManager(c.Request.Context(), m)
		if notifier != nil {
			ctx = appctx.WithNotifier(ctx, notifier)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
