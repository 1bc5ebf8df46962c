package jobs

// 后台任务名称.
const (
	// JobDeliveryExpirySweep 投递过期清扫任务.
	JobDeliveryExpirySweep = "delivery_expiry_sweep"
)

// 后台任务 cron 表达式.
const (
	// deliveryExpirySweepCron 每天凌晨 02:15 执行一次过期清扫.
	deliveryExpirySweepCron = "15 2 * * *"
)
