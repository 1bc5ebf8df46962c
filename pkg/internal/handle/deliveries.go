package handle

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/service"
	"github.com/yeisme/studyvault/pkg/internal/types"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/middleware"
	"github.com/yeisme/studyvault/pkg/rule"
)

// presignExpiry S3 附件下载链接的有效期.
const presignExpiry = 15 * time.Minute

// deliverWith 创建投递并立即外发.
func deliverWith(c *gin.Context, method string) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	var req types.DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	senderID, _ := currentUser(c)
	svc := service.NewDeliveryService(c.Request.Context())

	delivery, err := svc.Create(id, senderID, method, &req, service.CreateOptions{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMaterialNotFound):
			fail(c, http.StatusNotFound, "material not found")
		case errors.Is(err, service.ErrUserNotFound):
			fail(c, http.StatusNotFound, "recipient not found")
		case errors.Is(err, service.ErrSelfDelivery):
			fail(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrDuplicateDelivery):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			nlog.Logger().Error().Err(err).Msg("failed to create delivery")
			fail(c, http.StatusInternalServerError, "failed to create delivery")
		}

		return
	}

	if err := svc.Dispatch(delivery); err != nil {
		// 投递记录已保存为 failed，返回给调用方排查
		nlog.Logger().Error().Err(err).Str("delivery_id", delivery.DeliveryID).Msg("failed to dispatch delivery")
		fail(c, http.StatusInternalServerError, "delivery created but sending failed")

		return
	}

	ok(c, http.StatusOK, gin.H{
		"delivery":      delivery,
		"download_link": svc.DownloadLink(delivery),
		"expires_at":    delivery.ExpiresAt,
	})
}

// DeliverEmail 通过邮件投递资料
//
//	@Summary	邮件投递资料
//	@Tags		deliveries
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"资料ID"
//	@Param		request	body		types.DeliverRequest	true	"接收者"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials/{id}/deliver/email [post]
func DeliverEmail(c *gin.Context) {
	deliverWith(c, model.DeliveryMethodEmail)
}

// DeliverWhatsApp 通过 WhatsApp 投递资料
//
//	@Summary	WhatsApp 投递资料
//	@Tags		deliveries
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"资料ID"
//	@Param		request	body		types.DeliverRequest	true	"接收者"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/materials/{id}/deliver/whatsapp [post]
func DeliverWhatsApp(c *gin.Context) {
	deliverWith(c, model.DeliveryMethodWhatsApp)
}

// DownloadMaterial 凭投递令牌下载资料附件
//
//	@Summary	令牌下载资料
//	@Tags		deliveries
//	@Produce	octet-stream
//	@Param		id		path	int		true	"资料ID"
//	@Param		token	query	string	true	"下载令牌"
//	@Success	200
//	@Success	302
//	@Failure	400	{object}	map[string]any
//	@Failure	401	{object}	map[string]any
//	@Failure	404	{object}	map[string]any
//	@Router		/api/v1/materials/{id}/download [get]
func DownloadMaterial(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	// 资料不存在优先于令牌校验返回 404
	materials := service.NewMaterialService(c.Request.Context())

	material, err := materials.GetByIDFresh(id)
	if err != nil {
		fail(c, http.StatusNotFound, "material not found")

		return
	}

	token := c.Query("token")
	if token == "" {
		fail(c, http.StatusBadRequest, "token required")

		return
	}

	svc := service.NewDeliveryService(c.Request.Context())

	if _, err := svc.ResolveDownload(id, token); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			fail(c, http.StatusUnauthorized, "invalid download token")
		case errors.Is(err, service.ErrDeliveryCancelled):
			fail(c, http.StatusBadRequest, "delivery has been cancelled")
		case errors.Is(err, service.ErrTokenExpired):
			fail(c, http.StatusUnauthorized, "download token has expired")
		default:
			nlog.Logger().Error().Err(err).Msg("failed to resolve download")
			fail(c, http.StatusInternalServerError, "failed to resolve download")
		}

		return
	}

	if !material.HasFile() {
		fail(c, http.StatusNotFound, "material has no attachment")

		return
	}

	if err := materials.IncrementDownloadCount(material.ID); err != nil {
		nlog.Logger().Warn().Err(err).Msg("failed to increment material download count")
	}

	// S3 附件重定向到限时签名链接，本地附件直接回流
	if material.ObjectKey != "" {
		url, err := materials.PresignFileURL(material, presignExpiry)
		if err != nil || url == "" {
			nlog.Logger().Error().Err(err).Msg("failed to presign attachment url")
			fail(c, http.StatusInternalServerError, "failed to prepare download")

			return
		}

		c.Redirect(http.StatusFound, url)

		return
	}

	c.FileAttachment(material.FilePath, material.FileName)
}

// ListDeliveries 列出投递记录
//
//	@Summary	投递列表
//	@Tags		deliveries
//	@Produce	json
//	@Param		page		query		int		false	"页码"
//	@Param		page_size	query		int		false	"每页数量"
//	@Param		status		query		string	false	"状态过滤"
//	@Param		method		query		string	false	"渠道过滤"
//	@Success	200			{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/deliveries [get]
func ListDeliveries(c *gin.Context) {
	var q types.DeliveryListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid query parameters")

		return
	}

	if err := rule.ValidateStruct(q); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	actorID, role := currentUser(c)
	svc := service.NewDeliveryService(c.Request.Context())

	deliveries, total, err := svc.List(&q, actorID, role >= middleware.RoleAdmin)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to list deliveries")
		fail(c, http.StatusInternalServerError, "failed to list deliveries")

		return
	}

	ok(c, http.StatusOK, gin.H{
		"items":     deliveries,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetDelivery 查询投递详情
//
//	@Summary	投递详情
//	@Tags		deliveries
//	@Produce	json
//	@Param		id	path		string	true	"投递标识"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/deliveries/{id} [get]
func GetDelivery(c *gin.Context) {
	svc := service.NewDeliveryService(c.Request.Context())

	delivery, err := svc.GetByDeliveryID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "delivery not found")

		return
	}

	actorID, role := currentUser(c)
	if role < middleware.RoleAdmin && delivery.SenderID != actorID && delivery.UserID != actorID {
		fail(c, http.StatusForbidden, "insufficient permissions")

		return
	}

	ok(c, http.StatusOK, delivery)
}

// CancelDelivery 取消投递
//
//	@Summary	取消投递
//	@Tags		deliveries
//	@Produce	json
//	@Param		id	path		string	true	"投递标识"
//	@Success	200	{object}	map[string]any
//	@Failure	400	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/deliveries/{id}/cancel [post]
func CancelDelivery(c *gin.Context) {
	actorID, role := currentUser(c)
	svc := service.NewDeliveryService(c.Request.Context())

	delivery, err := svc.Cancel(c.Param("id"), actorID, role >= middleware.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeliveryNotFound):
			fail(c, http.StatusNotFound, "delivery not found")
		case errors.Is(err, service.ErrForbidden):
			fail(c, http.StatusForbidden, "insufficient permissions")
		default:
			fail(c, http.StatusBadRequest, err.Error())
		}

		return
	}

	ok(c, http.StatusOK, delivery)
}

// UpdateDelivery 管理员修改投递状态
//
//	@Summary	修改投递状态
//	@Tags		deliveries
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"投递标识"
//	@Param		request	body		types.UpdateDeliveryRequest	true	"目标状态"
//	@Success	200		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/deliveries/{id} [put]
func UpdateDelivery(c *gin.Context) {
	var req types.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewDeliveryService(c.Request.Context())

	delivery, err := svc.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrDeliveryNotFound) {
			fail(c, http.StatusNotFound, "delivery not found")

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to update delivery")
		fail(c, http.StatusInternalServerError, "failed to update delivery")

		return
	}

	ok(c, http.StatusOK, delivery)
}

// DeleteDelivery 管理员删除投递记录
//
//	@Summary	删除投递记录
//	@Tags		deliveries
//	@Produce	json
//	@Param		id	path		string	true	"投递标识"
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/deliveries/{id} [delete]
func DeleteDelivery(c *gin.Context) {
	svc := service.NewDeliveryService(c.Request.Context())

	if err := svc.Delete(c.Param("id")); err != nil {
		if errors.Is(err, service.ErrDeliveryNotFound) {
			fail(c, http.StatusNotFound, "delivery not found")

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to delete delivery")
		fail(c, http.StatusInternalServerError, "failed to delete delivery")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "delivery deleted"})
}
