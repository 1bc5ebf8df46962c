package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/types"
	"github.com/yeisme/studyvault/pkg/middleware"
	"github.com/yeisme/studyvault/pkg/queue"
)

// 认证相关错误.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
)

// AuthService 处理注册与登录.
type AuthService struct {
	ctx context.Context
	db  *db.Client
}

// NewAuthService 创建认证服务.
func NewAuthService(ctx context.Context) *AuthService {
	return &AuthService{
		ctx: ctx,
		db:  appctx.GetDBClient(ctx),
	}
}

// Register 注册新用户，角色默认 student，admin 角色不能自助注册.
func (s *AuthService) Register(req *types.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	if role == model.RoleAdmin {
		return nil, errors.New("admin role cannot be self-assigned")
	}

	var count int64
	if err := s.db.WithContext(s.ctx).Model(&model.User{}).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        req.Phone,
	}

	if err := s.db.WithContext(s.ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	queue.PublishUserRegistered(s.ctx, queue.UserEventPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})

	return user, nil
}

// Login 校验邮箱密码并签发登录令牌.
func (s *AuthService) Login(req *types.LoginRequest) (string, *model.User, error) {
	var user model.User
	if err := s.db.WithContext(s.ctx).
		Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}

		return "", nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}

// Logout 注销令牌：写入 KV 黑名单并保留到令牌自然过期.
func (s *AuthService) Logout(tokenString string) error {
	claims, err := middleware.ParseToken(tokenString, &configs.GetConfig().Auth)
	if err != nil {
		return err
	}

	store := appctx.GetKVClient(s.ctx)
	if store == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	return store.Set(s.ctx, middleware.RevokedTokenKey(tokenString), []byte("1"), ttl)
}

// ChangePassword 校验旧密码并更换新密码.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user model.User
	if err := s.db.WithContext(s.ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(s.ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// issueToken 签发 HS256 登录令牌.
func (s *AuthService) issueToken(user *model.User) (string, error) {
	cfg := configs.GetConfig().Auth
	now := time.Now()

	claims := middleware.AuthClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
