package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/cache"
	"github.com/yeisme/studyvault/pkg/configs"
	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/s3"
	"github.com/yeisme/studyvault/pkg/internal/types"
	"github.com/yeisme/studyvault/pkg/queue"
)

// 资料相关错误.
var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrForbidden        = errors.New("operation not permitted")
	ErrFileTooLarge     = errors.New("file exceeds upload size limit")
	ErrNoFile           = errors.New("material has no attachment")
)

// materialCacheTTL 资料详情缓存有效期.
const materialCacheTTL = 10 * time.Minute

// MaterialService 处理资料条目与附件.
type MaterialService struct {
	ctx   context.Context
	db    *db.Client
	s3    *s3.Client
	cache *cache.Cache[model.Material]
}

// NewMaterialService 创建资料服务.
func NewMaterialService(ctx context.Context) *MaterialService {
	m := appctx.GetStorageManager(ctx)

	svc := &MaterialService{
		ctx: ctx,
		db:  appctx.GetDBClient(ctx),
	}

	if m != nil {
		svc.s3 = m.GetS3Client()
		svc.cache = cache.New[model.Material](m.GetKVClient(), "material", materialCacheTTL)
	}

	return svc
}

// Create 创建资料条目.
func (s *MaterialService) Create(ownerID uint, req *types.CreateMaterialRequest) (*model.Material, error) {
	material := &model.Material{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Price:       req.Price,
	}

	if err := s.db.WithContext(s.ctx).Create(material).Error; err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	return material, nil
}

// GetByIDFresh 绕过缓存直接查询资料，附件的存储路径只在库中权威存在.
func (s *MaterialService) GetByIDFresh(id uint) (*model.Material, error) {
	material, err := s.loadMaterial(s.ctx, id)
	if err != nil {
		return nil, err
	}

	return &material, nil
}

// loadMaterial 从数据库加载资料.
func (s *MaterialService) loadMaterial(ctx context.Context, id uint) (model.Material, error) {
	var m model.Material
	if err := s.db.WithContext(ctx).Preload("Owner").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, ErrMaterialNotFound
		}

		return m, fmt.Errorf("failed to query material: %w", err)
	}

	return m, nil
}

// GetByID 查询资料详情，经过读缓存.
func (s *MaterialService) GetByID(id uint) (*model.Material, error) {
	loader := func(ctx context.Context) (model.Material, error) {
		return s.loadMaterial(ctx, id)
	}

	if s.cache == nil {
		material, err := loader(s.ctx)
		if err != nil {
			return nil, err
		}

		return &material, nil
	}

	material, err := s.cache.GetOrSet(s.ctx, strconv.FormatUint(uint64(id), 10), loader)
	if err != nil {
		return nil, err
	}

	return &material, nil
}

// List 按条件分页列出资料.
func (s *MaterialService) List(q *types.MaterialListQuery) ([]model.Material, int64, error) {
	q.Normalize()

	query := s.db.WithContext(s.ctx).Model(&model.Material{})

	if q.Subject != "" {
		query = query.Where("subject = ?", q.Subject)
	}

	if q.OwnerID != 0 {
		query = query.Where("owner_id = ?", q.OwnerID)
	}

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count materials: %w", err)
	}

	var materials []model.Material
	if err := query.Preload("Owner").
		Order("id DESC").
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&materials).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list materials: %w", err)
	}

	return materials, total, nil
}

// Update 更新资料，仅所有者或管理员.
func (s *MaterialService) Update(id, actorID uint, actorIsAdmin bool, req *types.UpdateMaterialRequest) (*model.Material, error) {
	material, err := s.getForWrite(id, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.Title != nil {
		updates["title"] = *req.Title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}

	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(s.ctx).Model(material).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update material: %w", err)
		}

		s.invalidate(id)
	}

	return material, nil
}

// Delete 删除资料及其附件，仅所有者或管理员.
func (s *MaterialService) Delete(id, actorID uint, actorIsAdmin bool) error {
	material, err := s.getForWrite(id, actorID, actorIsAdmin)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(s.ctx).Delete(material).Error; err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}

	s.removeAttachment(material)
	s.invalidate(id)

	return nil
}

// UploadFile 保存附件，启用 S3 时落对象存储，否则落本地磁盘.
func (s *MaterialService) UploadFile(id, actorID uint, actorIsAdmin bool, header *multipart.FileHeader) (*model.Material, error) {
	cfg := configs.GetConfig().Server

	if header.Size > cfg.MaxUploadBytes() {
		return nil, ErrFileTooLarge
	}

	material, err := s.getForWrite(id, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// 替换旧附件
	s.removeAttachment(material)

	updates := map[string]any{
		"file_name":    header.Filename,
		"file_size":    header.Size,
		"content_type": contentType,
		"file_path":    "",
		"object_key":   "",
		"bucket":       "",
		"file_url":     "",
	}

	if s.s3 != nil {
		objectKey := fmt.Sprintf("materials/%d/%s", material.ID, header.Filename)
		if err := s.s3.Upload(s.ctx, objectKey, file, header.Size, contentType); err != nil {
			return nil, err
		}

		updates["object_key"] = objectKey
		updates["bucket"] = s.s3.Bucket()
	} else {
		dir := filepath.Join(cfg.UploadDir, strconv.FormatUint(uint64(material.ID), 10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}

		dst := filepath.Join(dir, filepath.Base(header.Filename))

		out, err := os.Create(dst)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		defer out.Close()

		if _, err := io.Copy(out, file); err != nil {
			return nil, fmt.Errorf("failed to save file: %w", err)
		}

		updates["file_path"] = dst
	}

	if err := s.db.WithContext(s.ctx).Model(material).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to save attachment metadata: %w", err)
	}

	s.invalidate(id)

	queue.PublishMaterialUploaded(s.ctx, queue.MaterialEventPayload{
		MaterialID: material.ID,
		OwnerID:    material.OwnerID,
		FileName:   header.Filename,
	})

	return material, nil
}

// OpenFile 打开附件读取流；S3 存储返回对象流，本地存储返回文件流.
func (s *MaterialService) OpenFile(material *model.Material) (io.ReadCloser, error) {
	if !material.HasFile() {
		return nil, ErrNoFile
	}

	if material.ObjectKey != "" {
		if s.s3 == nil {
			return nil, errors.New("s3 storage not available")
		}

		return s.s3.Download(s.ctx, material.ObjectKey)
	}

	f, err := os.Open(material.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}

	return f, nil
}

// PresignFileURL 为 S3 附件生成限时下载 URL，本地附件返回空串.
func (s *MaterialService) PresignFileURL(material *model.Material, expiry time.Duration) (string, error) {
	if material.ObjectKey == "" || s.s3 == nil {
		return "", nil
	}

	return s.s3.PresignedGet(s.ctx, material.ObjectKey, expiry)
}

// IncrementDownloadCount 资料下载计数加一.
func (s *MaterialService) IncrementDownloadCount(id uint) error {
	if err := s.db.WithContext(s.ctx).Model(&model.Material{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}

	s.invalidate(id)

	return nil
}

// getForWrite 查询资料并校验写权限.
func (s *MaterialService) getForWrite(id, actorID uint, actorIsAdmin bool) (*model.Material, error) {
	var material model.Material
	if err := s.db.WithContext(s.ctx).First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}

		return nil, fmt.Errorf("failed to query material: %w", err)
	}

	if material.OwnerID != actorID && !actorIsAdmin {
		return nil, ErrForbidden
	}

	return &material, nil
}

// removeAttachment 删除已有附件文件，失败不影响主流程.
func (s *MaterialService) removeAttachment(material *model.Material) {
	if material.ObjectKey != "" && s.s3 != nil {
		_ = s.s3.Remove(s.ctx, material.ObjectKey)
	}

	if material.FilePath != "" {
		_ = os.Remove(material.FilePath)
	}
}

// invalidate 清除资料缓存.
func (s *MaterialService) invalidate(id uint) {
	if s.cache != nil {
		_ = s.cache.Delete(s.ctx, strconv.FormatUint(uint64(id), 10))
	}
}
