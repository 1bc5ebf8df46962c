package types

// CreateMaterialRequest 创建资料请求.
type CreateMaterialRequest struct {
	Title       string `json:"title"       rule:"required,max=255"`
	Description string `json:"description" rule:"omitempty,max=4096"`
	Subject     string `json:"subject"     rule:"omitempty,max=128"`
	Price       int64  `json:"price"       rule:"omitempty,min=0"`
}

// UpdateMaterialRequest 更新资料请求.
type UpdateMaterialRequest struct {
	Title       *string `json:"title"       rule:"omitempty,max=255"`
	Description *string `json:"description" rule:"omitempty,max=4096"`
	Subject     *string `json:"subject"     rule:"omitempty,max=128"`
	Price       *int64  `json:"price"       rule:"omitempty,min=0"`
}

// MaterialListQuery 资料列表查询参数.
type MaterialListQuery struct {
	ListQuery

	Subject string `form:"subject" rule:"omitempty,max=128"`
	OwnerID uint   `form:"owner_id"`
	Search  string `form:"search"  rule:"omitempty,max=255"`
}
