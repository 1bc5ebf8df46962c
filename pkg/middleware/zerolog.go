package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	nlog "github.com/yeisme/studyvault/pkg/log"
)

// ZerologMiddleware 请求日志中间件.
func ZerologMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := nlog.Logger().Info()
		if status >= 500 {
			event = nlog.Logger().Error()
		} else if status >= 400 {
			event = nlog.Logger().Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
