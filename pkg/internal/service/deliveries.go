package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/types"
	"github.com/yeisme/studyvault/pkg/metrics"
	"github.com/yeisme/studyvault/pkg/queue"
)

// 投递相关错误.
var (
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrSelfDelivery      = errors.New("cannot deliver material to its owner")
	ErrDuplicateDelivery = errors.New("an active delivery for this material and user already exists")
	ErrInvalidToken      = errors.New("invalid download token")
	ErrTokenExpired      = errors.New("download token has expired")
	ErrDeliveryCancelled = errors.New("delivery has been cancelled")
)

// deliveryTokenTTL 下载令牌有效期.
const deliveryTokenTTL = 7 * 24 * time.Hour

// DeliveryService 处理资料投递：创建、外发、令牌下载与状态管理.
type DeliveryService struct {
	ctx      context.Context
	db       *db.Client
	notifier notify.Dispatcher
}

// NewDeliveryService 创建投递服务.
func NewDeliveryService(ctx context.Context) *DeliveryService {
	return &DeliveryService{
		ctx:      ctx,
		db:       appctx.GetDBClient(ctx),
		notifier: appctx.GetNotifier(ctx),
	}
}

// CreateOptions 创建投递时的请求上下文.
type CreateOptions struct {
	IPAddress string
	UserAgent string
}

// Create 创建投递记录并生成下载令牌
// 拒绝投递给资料拥有者，以及对同一资料、同一接收者的重复活跃投递.
func (s *DeliveryService) Create(materialID, senderID uint, method string, req *types.DeliverRequest, opts CreateOptions) (*model.Delivery, error) {
	var material model.Material
	if err := s.db.WithContext(s.ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}

		return nil, fmt.Errorf("failed to query material: %w", err)
	}

	var recipient model.User
	if err := s.db.WithContext(s.ctx).First(&recipient, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to query recipient: %w", err)
	}

	// 拥有者本来就持有文件，投递给拥有者没有意义
	if recipient.ID == material.OwnerID {
		return nil, ErrSelfDelivery
	}

	// cancelled 与 expired 为终态，不阻止重新投递
	var count int64
	if err := s.db.WithContext(s.ctx).Model(&model.Delivery{}).
		Where("material_id = ? AND user_id = ? AND status NOT IN ?",
			materialID, recipient.ID,
			[]string{model.DeliveryStatusCancelled, model.DeliveryStatusExpired}).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing deliveries: %w", err)
	}

	if count > 0 {
		return nil, ErrDuplicateDelivery
	}

	token, err := newDeliveryToken()
	if err != nil {
		return nil, err
	}

	delivery := &model.Delivery{
		DeliveryID: newDeliveryID(),
		MaterialID: materialID,
		UserID:     recipient.ID,
		SenderID:   senderID,
		Method:     method,
		Address:    req.Address,
		Status:     model.DeliveryStatusPending,
		Token:      token,
		ExpiresAt:  time.Now().Add(deliveryTokenTTL),
		IPAddress:  opts.IPAddress,
		UserAgent:  opts.UserAgent,
	}

	if err := s.db.WithContext(s.ctx).Create(delivery).Error; err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}

	metrics.DeliveriesTotal.WithLabelValues(method, model.DeliveryStatusPending).Inc()

	queue.PublishDeliveryRequested(s.ctx, queue.DeliveryEventPayload{
		DeliveryID: delivery.DeliveryID,
		MaterialID: materialID,
		UserID:     recipient.ID,
		Method:     method,
		Address:    req.Address,
		Status:     delivery.Status,
	})

	delivery.Material = &material
	delivery.User = &recipient

	return delivery, nil
}

// downloadLink 拼接前端下载页面链接.
func downloadLink(materialID uint, token string) string {
	return fmt.Sprintf("%s/download/%d?token=%s",
		configs.GetConfig().Server.FrontendURL, materialID, token)
}

// DownloadLink 返回投递对应的下载链接.
func (s *DeliveryService) DownloadLink(delivery *model.Delivery) string {
	return downloadLink(delivery.MaterialID, delivery.Token)
}

// Dispatch 外发投递通知，按结果推进状态机 pending -> processing -> delivered/failed.
func (s *DeliveryService) Dispatch(delivery *model.Delivery) error {
	if s.notifier == nil {
		return errors.New("notifier not configured")
	}

	if err := s.setStatus(delivery, model.DeliveryStatusProcessing, nil); err != nil {
		return err
	}

	material := delivery.Material
	if material == nil {
		material = &model.Material{}
		if err := s.db.WithContext(s.ctx).First(material, delivery.MaterialID).Error; err != nil {
			return fmt.Errorf("failed to load material: %w", err)
		}
	}

	link := downloadLink(delivery.MaterialID, delivery.Token)
	sendErr := s.send(delivery, material, link)

	if sendErr != nil {
		delivery.ErrorMessage = sendErr.Error()
		_ = s.setStatus(delivery, model.DeliveryStatusFailed, map[string]any{
			"error_message": sendErr.Error(),
		})

		metrics.DeliveriesTotal.WithLabelValues(delivery.Method, model.DeliveryStatusFailed).Inc()

		queue.PublishDeliveryFailed(s.ctx, queue.DeliveryEventPayload{
			DeliveryID: delivery.DeliveryID,
			MaterialID: delivery.MaterialID,
			UserID:     delivery.UserID,
			Method:     delivery.Method,
			Address:    delivery.Address,
			Status:     model.DeliveryStatusFailed,
			Error:      sendErr.Error(),
		})

		return fmt.Errorf("failed to dispatch delivery: %w", sendErr)
	}

	now := time.Now()
	delivery.DeliveredAt = &now

	if err := s.setStatus(delivery, model.DeliveryStatusDelivered, map[string]any{
		"delivered_at": now,
	}); err != nil {
		return err
	}

	metrics.DeliveriesTotal.WithLabelValues(delivery.Method, model.DeliveryStatusDelivered).Inc()

	queue.PublishDeliveryDispatched(s.ctx, queue.DeliveryEventPayload{
		DeliveryID: delivery.DeliveryID,
		MaterialID: delivery.MaterialID,
		UserID:     delivery.UserID,
		Method:     delivery.Method,
		Address:    delivery.Address,
		Status:     model.DeliveryStatusDelivered,
	})

	return nil
}

// send 按渠道发送下载链接.
func (s *DeliveryService) send(delivery *model.Delivery, material *model.Material, link string) error {
	switch delivery.Method {
	case model.DeliveryMethodEmail:
		toName := ""
		if delivery.User != nil {
			toName = delivery.User.Name
		}

		return s.notifier.SendMail(s.ctx, &notify.Mail{
			To:      delivery.Address,
			ToName:  toName,
			Subject: fmt.Sprintf("Study material shared with you: %s", material.Title),
			PlainText: fmt.Sprintf(
				"You have received the study material %q.\n\nDownload it here (link expires in 7 days):\n%s",
				material.Title, link),
			HTML: fmt.Sprintf(
				`<p>You have received the study material <strong>%s</strong>.</p><p><a href="%s">Download</a> (link expires in 7 days)</p>`,
				material.Title, link),
		})
	case model.DeliveryMethodWhatsApp:
		return s.notifier.SendText(s.ctx, &notify.Text{
			To:       delivery.Address,
			WhatsApp: true,
			Body: fmt.Sprintf("Study material %q was shared with you. Download (expires in 7 days): %s",
				material.Title, link),
		})
	default:
		return fmt.Errorf("unsupported delivery method: %s", delivery.Method)
	}
}

// setStatus 更新投递状态.
func (s *DeliveryService) setStatus(delivery *model.Delivery, status string, extra map[string]any) error {
	updates := map[string]any{"status": status}
	for k, v := range extra {
		updates[k] = v
	}

	if err := s.db.WithContext(s.ctx).Model(&model.Delivery{}).
		Where("id = ?", delivery.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}

	delivery.Status = status

	return nil
}

// FindByToken 按令牌查询投递.
func (s *DeliveryService) FindByToken(token string) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := s.db.WithContext(s.ctx).Preload("Material").Preload("User").
		Where("token = ?", token).First(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}

	return &delivery, nil
}

// ResolveDownload 校验下载令牌并推进计数
// 过期令牌惰性标记为 expired 终态.
func (s *DeliveryService) ResolveDownload(materialID uint, token string) (*model.Delivery, error) {
	delivery, err := s.FindByToken(token)
	if err != nil {
		return nil, err
	}

	if delivery.MaterialID != materialID {
		return nil, ErrInvalidToken
	}

	if delivery.Status == model.DeliveryStatusCancelled {
		return nil, ErrDeliveryCancelled
	}

	if delivery.Status == model.DeliveryStatusExpired {
		return nil, ErrTokenExpired
	}

	if delivery.IsExpired(time.Now()) {
		_ = s.setStatus(delivery, model.DeliveryStatusExpired, nil)

		metrics.DeliveriesTotal.WithLabelValues(delivery.Method, model.DeliveryStatusExpired).Inc()

		return nil, ErrTokenExpired
	}

	now := time.Now()
	updates := map[string]any{
		"download_count":     gorm.Expr("download_count + 1"),
		"last_downloaded_at": now,
	}

	// 首次下载视为送达
	if delivery.Status != model.DeliveryStatusDelivered {
		updates["status"] = model.DeliveryStatusDelivered
		updates["delivered_at"] = now
		delivery.Status = model.DeliveryStatusDelivered
		delivery.DeliveredAt = &now
	}

	if err := s.db.WithContext(s.ctx).Model(&model.Delivery{}).
		Where("id = ?", delivery.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	delivery.DownloadCount++
	delivery.LastDownloadedAt = &now

	metrics.DownloadsTotal.Inc()

	queue.PublishMaterialDownloaded(s.ctx, queue.MaterialEventPayload{
		MaterialID: delivery.MaterialID,
		OwnerID:    delivery.SenderID,
		DeliveryID: delivery.DeliveryID,
	})

	return delivery, nil
}

// GetByDeliveryID 按公开标识查询投递.
func (s *DeliveryService) GetByDeliveryID(deliveryID string) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := s.db.WithContext(s.ctx).Preload("Material").Preload("User").
		Where("delivery_id = ?", deliveryID).First(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNotFound
		}

		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}

	return &delivery, nil
}

// List 按条件分页列出投递，actorID 非管理员时只能看到自己发出或接收的.
func (s *DeliveryService) List(q *types.DeliveryListQuery, actorID uint, actorIsAdmin bool) ([]model.Delivery, int64, error) {
	q.Normalize()

	query := s.db.WithContext(s.ctx).Model(&model.Delivery{})

	if !actorIsAdmin {
		query = query.Where("sender_id = ? OR user_id = ?", actorID, actorID)
	}

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	if q.Method != "" {
		query = query.Where("method = ?", q.Method)
	}

	if q.MaterialID != 0 {
		query = query.Where("material_id = ?", q.MaterialID)
	}

	if q.UserID != 0 {
		query = query.Where("user_id = ?", q.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}

	var deliveries []model.Delivery
	if err := query.Preload("Material").Preload("User").
		Order("id DESC").
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&deliveries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list deliveries: %w", err)
	}

	return deliveries, total, nil
}

// Cancel 取消投递，仅发送者或管理员，终态投递不可取消.
func (s *DeliveryService) Cancel(deliveryID string, actorID uint, actorIsAdmin bool) (*model.Delivery, error) {
	delivery, err := s.GetByDeliveryID(deliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.SenderID != actorID && !actorIsAdmin {
		return nil, ErrForbidden
	}

	if delivery.IsTerminal() {
		return nil, fmt.Errorf("delivery is already %s", delivery.Status)
	}

	if err := s.setStatus(delivery, model.DeliveryStatusCancelled, nil); err != nil {
		return nil, err
	}

	metrics.DeliveriesTotal.WithLabelValues(delivery.Method, model.DeliveryStatusCancelled).Inc()

	return delivery, nil
}

// UpdateStatus 管理员直接设置投递状态.
func (s *DeliveryService) UpdateStatus(deliveryID, status string) (*model.Delivery, error) {
	delivery, err := s.GetByDeliveryID(deliveryID)
	if err != nil {
		return nil, err
	}

	if err := s.setStatus(delivery, status, nil); err != nil {
		return nil, err
	}

	return delivery, nil
}

// Delete 管理员删除投递记录（软删除）.
func (s *DeliveryService) Delete(deliveryID string) error {
	result := s.db.WithContext(s.ctx).
		Where("delivery_id = ?", deliveryID).
		Delete(&model.Delivery{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete delivery: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrDeliveryNotFound
	}

	return nil
}

// SweepExpired 批量把令牌已过期的活跃投递标记为 expired，返回处理条数.
func (s *DeliveryService) SweepExpired() (int64, error) {
	result := s.db.WithContext(s.ctx).Model(&model.Delivery{}).
		Where("expires_at < ? AND status IN ?", time.Now(),
			[]string{
				model.DeliveryStatusPending,
				model.DeliveryStatusProcessing,
				model.DeliveryStatusDelivered,
			}).
		Update("status", model.DeliveryStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired deliveries: %w", result.Error)
	}

	return result.RowsAffected, nil
}
