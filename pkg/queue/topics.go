package queue

// 事件主题，按领域分层命名.
const (
	// TopicDeliveryRequested 投递创建成功，等待外发.
	TopicDeliveryRequested = "sv.delivery.requested"
	// TopicDeliveryDispatched 投递外发成功.
	TopicDeliveryDispatched = "sv.delivery.dispatched"
	// TopicDeliveryFailed 投递外发失败.
	TopicDeliveryFailed = "sv.delivery.failed"
	// TopicMaterialUploaded 资料上传附件成功.
	TopicMaterialUploaded = "sv.material.uploaded"
	// TopicMaterialDownloaded 资料通过投递令牌下载成功.
	TopicMaterialDownloaded = "sv.material.downloaded"
	// TopicUserRegistered 新用户注册成功.
	TopicUserRegistered = "sv.user.registered"
)

// DeliveryTopics 投递相关主题集合.
var DeliveryTopics = []string{
	TopicDeliveryRequested,
	TopicDeliveryDispatched,
	TopicDeliveryFailed,
}

// MaterialTopics 资料相关主题集合.
var MaterialTopics = []string{
	TopicMaterialUploaded,
	TopicMaterialDownloaded,
}
