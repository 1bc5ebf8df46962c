package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
)

// 手机验证相关错误.
var (
	ErrInvalidCode = errors.New("invalid or expired verification code")
)

// verificationCodeTTL 验证码有效期.
const verificationCodeTTL = 10 * time.Minute

// VerificationService 处理手机号验证码的发送与校验.
type VerificationService struct {
	ctx      context.Context
	db       *db.Client
	kv       kv.KVStore
	notifier notify.Dispatcher
}

// NewVerificationService 创建验证码服务.
func NewVerificationService(ctx context.Context) *VerificationService {
	return &VerificationService{
		ctx:      ctx,
		db:       appctx.GetDBClient(ctx),
		kv:       appctx.GetKVClient(ctx),
		notifier: appctx.GetNotifier(ctx),
	}
}

// codeKey 验证码在 KV 中的键.
func codeKey(phone string) string {
	return "verify:" + phone
}

// SendCode 生成 6 位验证码，写入 KV 并通过短信发送.
func (s *VerificationService) SendCode(phone string) error {
	code, err := newVerificationCode()
	if err != nil {
		return err
	}

	if err := s.kv.Set(s.ctx, codeKey(phone), []byte(code), verificationCodeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if s.notifier == nil {
		return errors.New("notifier not configured")
	}

	return s.notifier.SendText(s.ctx, &notify.Text{
		To:   phone,
		Body: fmt.Sprintf("Your StudyVault verification code is %s. It expires in 10 minutes.", code),
	})
}

// VerifyCode 校验验证码，成功后标记用户手机已验证并删除验证码.
func (s *VerificationService) VerifyCode(userID uint, phone, code string) error {
	stored, err := s.kv.Get(s.ctx, codeKey(phone))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return ErrInvalidCode
		}

		return fmt.Errorf("failed to read verification code: %w", err)
	}

	if string(stored) != code {
		return ErrInvalidCode
	}

	if err := s.db.WithContext(s.ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"phone": phone, "phone_verified": true}).Error; err != nil {
		return fmt.Errorf("failed to mark phone verified: %w", err)
	}

	_ = s.kv.Delete(s.ctx, codeKey(phone))

	return nil
}
