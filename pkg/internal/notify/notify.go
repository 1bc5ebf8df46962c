// Package notify 负责投递通知的外发，支持 SendGrid 邮件、Twilio 短信/WhatsApp 和开发用 console 后端.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// Mail 邮件通知.
type Mail struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Text 短信/WhatsApp 通知.
type Text struct {
	To       string
	Body     string
	WhatsApp bool
}

// Dispatcher 通知分发器接口.
type Dispatcher interface {
	// SendMail 发送邮件通知.
	SendMail(ctx context.Context, m *Mail) error
	// SendText 发送短信或 WhatsApp 通知.
	SendText(ctx context.Context, t *Text) error
}

// mailSender 邮件后端.
type mailSender interface {
	SendMail(ctx context.Context, m *Mail) error
}

// textSender 短信/WhatsApp 后端.
type textSender interface {
	SendText(ctx context.Context, t *Text) error
}

// dispatcher 组合邮件与短信后端，外发调用经过熔断器保护.
type dispatcher struct {
	mail mailSender
	text textSender

	mailBreaker *gobreaker.CircuitBreaker
	textBreaker *gobreaker.CircuitBreaker
}

// NewDispatcher 按配置创建通知分发器.
func NewDispatcher(cfg *configs.NotifyConfig, cb *configs.CircuitBreakerConfig) (Dispatcher, error) {
	// console 后端在两个通道间共享，便于测试与本地开发统一查看
	console := NewConsoleSender()

	d := &dispatcher{}

	switch cfg.Email.Backend {
	case configs.NotifyBackendSendGrid:
		d.mail = newSendGridSender(&cfg.Email)
	case configs.NotifyBackendConsole:
		d.mail = console
	default:
		return nil, fmt.Errorf("unsupported email backend: %s", cfg.Email.Backend)
	}

	switch cfg.SMS.Backend {
	case configs.NotifyBackendTwilio:
		d.text = newTwilioSender(&cfg.SMS)
	case configs.NotifyBackendConsole:
		d.text = console
	default:
		return nil, fmt.Errorf("unsupported sms backend: %s", cfg.SMS.Backend)
	}

	if cb != nil && cb.Enabled {
		d.mailBreaker = newBreaker("notify-mail", cb)
		d.textBreaker = newBreaker("notify-text", cb)
	}

	return d, nil
}

// newBreaker 创建外发通道的熔断器.
func newBreaker(name string, cb *configs.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cb.MaxRequestsInHalf,
		Interval:    time.Duration(cb.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cb.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cb.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return failureRatio >= cb.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			nlog.Logger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notify circuit breaker state changed")
		},
	})
}

// SendMail 发送邮件，熔断器打开时快速失败.
func (d *dispatcher) SendMail(ctx context.Context, m *Mail) error {
	if d.mailBreaker != nil {
		_, err := d.mailBreaker.Execute(func() (any, error) {
			return nil, d.mail.SendMail(ctx, m)
		})

		return err
	}

	return d.mail.SendMail(ctx, m)
}

// SendText 发送短信/WhatsApp，熔断器打开时快速失败.
func (d *dispatcher) SendText(ctx context.Context, t *Text) error {
	if d.textBreaker != nil {
		_, err := d.textBreaker.Execute(func() (any, error) {
			return nil, d.text.SendText(ctx, t)
		})

		return err
	}

	return d.text.SendText(ctx, t)
}
