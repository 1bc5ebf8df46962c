package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/types"
)

// ErrUserNotFound 用户不存在.
var ErrUserNotFound = errors.New("user not found")

// UserService 处理用户资料的查询与维护.
type UserService struct {
	ctx context.Context
	db  *db.Client
}

// NewUserService 创建用户服务.
func NewUserService(ctx context.Context) *UserService {
	return &UserService{
		ctx: ctx,
		db:  appctx.GetDBClient(ctx),
	}
}

// GetByID 按 ID 查询用户.
func (s *UserService) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(s.ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// List 分页列出用户.
func (s *UserService) List(q *types.ListQuery) ([]model.User, int64, error) {
	q.Normalize()

	var total int64
	if err := s.db.WithContext(s.ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []model.User
	if err := s.db.WithContext(s.ctx).
		Order("id").
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Update 更新用户资料（本人或管理员）.
func (s *UserService) Update(id uint, req *types.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.Name != "" {
		updates["name"] = req.Name
	}

	if req.Phone != "" && req.Phone != user.Phone {
		// 换绑手机号后需重新验证
		updates["phone"] = req.Phone
		updates["phone_verified"] = false
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(s.ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// UpdateRole 管理员修改用户角色.
func (s *UserService) UpdateRole(id uint, role string) (*model.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(s.ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	return user, nil
}

// Delete 删除用户（软删除）.
func (s *UserService) Delete(id uint) error {
	result := s.db.WithContext(s.ctx).Delete(&model.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ToUserResponse 转换为响应结构.
func ToUserResponse(u *model.User) types.UserResponse {
	return types.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}
