package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/service"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/middleware"
)

// ListJobs 列出后台任务状态
//
//	@Summary	后台任务状态
//	@Tags		scheduler
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/scheduler/jobs [get]
func ListJobs(c *gin.Context) {
	s := middleware.GetScheduler(c)
	if s == nil {
		fail(c, http.StatusServiceUnavailable, "scheduler not available")

		return
	}

	ok(c, http.StatusOK, gin.H{
		"jobs":    s.GetJobInfos(),
		"waiting": s.JobsWaitingInQueue(),
	})
}

// SweepExpiredDeliveries 手动触发投递过期清理
//
//	@Summary	触发投递过期清理
//	@Tags		scheduler
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/scheduler/sweep [post]
func SweepExpiredDeliveries(c *gin.Context) {
	svc := service.NewDeliveryService(c.Request.Context())

	swept, err := svc.SweepExpired()
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to sweep expired deliveries")
		fail(c, http.StatusInternalServerError, "failed to sweep expired deliveries")

		return
	}

	ok(c, http.StatusOK, gin.H{"swept": swept})
}
