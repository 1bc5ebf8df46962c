package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/service"
	"github.com/yeisme/studyvault/pkg/internal/types"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/middleware"
	"github.com/yeisme/studyvault/pkg/rule"
)

// materialError 把 service 错误映射为 HTTP 状态码.
func materialError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		fail(c, http.StatusNotFound, "material not found")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrFileTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, "file exceeds upload size limit")
	default:
		nlog.Logger().Error().Err(err).Msg("failed to " + action)
		fail(c, http.StatusInternalServerError, "failed to "+action)
	}
}

// CreateMaterial 创建资料
//
//	@Summary	创建资料条目
//	@Tags		materials
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.CreateMaterialRequest	true	"资料信息"
//	@Success	201		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials [post]
func CreateMaterial(c *gin.Context) {
	var req types.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	userID, _ := currentUser(c)
	svc := service.NewMaterialService(c.Request.Context())

	material, err := svc.Create(userID, &req)
	if err != nil {
		materialError(c, err, "create material")

		return
	}

	ok(c, http.StatusCreated, material)
}

// GetMaterial 查询资料详情
//
//	@Summary	资料详情
//	@Tags		materials
//	@Produce	json
//	@Param		id	path		int	true	"资料ID"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	map[string]any
//	@Router		/api/v1/materials/{id} [get]
func GetMaterial(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	svc := service.NewMaterialService(c.Request.Context())

	material, err := svc.GetByID(id)
	if err != nil {
		materialError(c, err, "get material")

		return
	}

	ok(c, http.StatusOK, material)
}

// ListMaterials 列出资料
//
//	@Summary	资料列表
//	@Tags		materials
//	@Produce	json
//	@Param		page		query		int		false	"页码"
//	@Param		page_size	query		int		false	"每页数量"
//	@Param		subject		query		string	false	"学科"
//	@Param		owner_id	query		int		false	"所有者ID"
//	@Param		search		query		string	false	"标题/描述搜索"
//	@Success	200			{object}	map[string]any
//	@Router		/api/v1/materials [get]
func ListMaterials(c *gin.Context) {
	var q types.MaterialListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid query parameters")

		return
	}

	svc := service.NewMaterialService(c.Request.Context())

	materials, total, err := svc.List(&q)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to list materials")
		fail(c, http.StatusInternalServerError, "failed to list materials")

		return
	}

	ok(c, http.StatusOK, gin.H{
		"items":     materials,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// UpdateMaterial 更新资料
//
//	@Summary	更新资料
//	@Tags		materials
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int							true	"资料ID"
//	@Param		request	body		types.UpdateMaterialRequest	true	"更新字段"
//	@Success	200		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials/{id} [put]
func UpdateMaterial(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	var req types.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	userID, role := currentUser(c)
	svc := service.NewMaterialService(c.Request.Context())

	material, err := svc.Update(id, userID, role >= middleware.RoleAdmin, &req)
	if err != nil {
		materialError(c, err, "update material")

		return
	}

	ok(c, http.StatusOK, material)
}

// DeleteMaterial 删除资料
//
//	@Summary	删除资料
//	@Tags		materials
//	@Produce	json
//	@Param		id	path		int	true	"资料ID"
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials/{id} [delete]
func DeleteMaterial(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	userID, role := currentUser(c)
	svc := service.NewMaterialService(c.Request.Context())

	if err := svc.Delete(id, userID, role >= middleware.RoleAdmin); err != nil {
		materialError(c, err, "delete material")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "material deleted"})
}

// UploadMaterialFile 上传资料附件
//
//	@Summary	上传资料附件
//	@Tags		materials
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		int		true	"资料ID"
//	@Param		file	formData	file	true	"附件"
//	@Success	200		{object}	map[string]any
//	@Failure	413		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials/{id}/file [post]
func UploadMaterialFile(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file field required")

		return
	}

	userID, role := currentUser(c)
	svc := service.NewMaterialService(c.Request.Context())

	material, err := svc.UploadFile(id, userID, role >= middleware.RoleAdmin, header)
	if err != nil {
		materialError(c, err, "upload file")

		return
	}

	ok(c, http.StatusOK, material)
}
