// Package service 实现业务逻辑层，service 实例按请求创建并从 context 获取存储客户端.
package service

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// deliveryTokenBytes 下载令牌的随机字节数，十六进制编码后 64 字符.
const deliveryTokenBytes = 32

var (
	entropy     io.Reader
	entropyOnce sync.Once
	entropyMu   sync.Mutex
)

// initEntropy 初始化 ULID 单调熵源.
func initEntropy() {
	entropy = ulid.Monotonic(crand.Reader, 0)
}

// newDeliveryID 生成 dl_ 前缀的投递公开标识.
func newDeliveryID() string {
	entropyOnce.Do(initEntropy)

	// Monotonic 熵源非并发安全
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)

	return "dl_" + id.String()
}

// newDeliveryToken 生成加密随机的下载令牌.
func newDeliveryToken() (string, error) {
	buf := make([]byte, deliveryTokenBytes)
	if _, err := crand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate delivery token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// newVerificationCode 生成 6 位数字验证码.
func newVerificationCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := crand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])

	return fmt.Sprintf("%06d", n%1000000), nil
}
