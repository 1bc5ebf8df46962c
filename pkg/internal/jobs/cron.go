// Package jobs 注册应用的后台定时任务.
package jobs

import (
	contextPkg "context"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/service"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/scheduler"
)

// RegisterJobs 向调度器注册所有后台任务.
func RegisterJobs(s *scheduler.Scheduler, manager *storage.Manager) error {
	l := nlog.Logger()

	ctx := appctx.WithStorageManager(contextPkg.Background(), manager)

	if _, err := s.AddCron(JobDeliveryExpirySweep, deliveryExpirySweepCron, func() error {
		n, err := service.NewDeliveryService(ctx).SweepExpired()
		if err != nil {
			return err
		}

		if n > 0 {
			l.Info().Int64("expired", n).Msg("delivery expiry sweep finished")
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}
