package types

// DeliverRequest 创建投递请求，address 为接收方邮箱或手机号.
type DeliverRequest struct {
	UserID  uint   `json:"user_id" rule:"required"`
	Address string `json:"address" rule:"required,max=255"`
}

// UpdateDeliveryRequest 管理员更新投递状态请求.
type UpdateDeliveryRequest struct {
	Status string `json:"status" rule:"required,oneof=pending processing delivered failed cancelled expired"`
}

// DeliveryListQuery 投递列表查询参数.
type DeliveryListQuery struct {
	ListQuery

	Status     string `form:"status"      rule:"omitempty,oneof=pending processing delivered failed cancelled expired"`
	Method     string `form:"method"      rule:"omitempty,oneof=email whatsapp"`
	MaterialID uint   `form:"material_id"`
	UserID     uint   `form:"user_id"`
}
