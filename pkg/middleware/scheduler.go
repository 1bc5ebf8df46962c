package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/scheduler"
)

// CtxSchedulerKey gin context 中的调度器键.
const CtxSchedulerKey = "scheduler"

// SchedulerMiddleware 把调度器注入 gin context，供运维接口查询任务状态.
func SchedulerMiddleware(s *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxSchedulerKey, s)

		c.Next()
	}
}

// GetScheduler 从 gin context 取调度器.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	if v, exists := c.Get(CtxSchedulerKey); exists {
		if s, ok := v.(*scheduler.Scheduler); ok {
			return s
		}
	}

	return nil
}
