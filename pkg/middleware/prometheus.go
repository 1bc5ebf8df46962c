package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/metrics"
)

// PrometheusMiddleware 记录请求计数与耗时.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 使用路由模板避免高基数标签
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
