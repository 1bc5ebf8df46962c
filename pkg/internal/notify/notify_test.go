package notify

import (
	"context"
	"testing"

	"github.com/yeisme/studyvault/pkg/configs"
)

// TestConsoleSenderRecords 测试 console 后端记录消息.
func TestConsoleSenderRecords(t *testing.T) {
	ctx := context.Background()
	console := NewConsoleSender()

	mail := &Mail{To: "alice@example.com", Subject: "hi", PlainText: "body"}
	if err := console.SendMail(ctx, mail); err != nil {
		t.Fatalf("SendMail failed: %v", err)
	}

	text := &Text{To: "+8613800138000", Body: "hello", WhatsApp: true}
	if err := console.SendText(ctx, text); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	mails := console.SentMails()
	if len(mails) != 1 || mails[0].To != "alice@example.com" {
		t.Errorf("unexpected sent mails: %+v", mails)
	}

	texts := console.SentTexts()
	if len(texts) != 1 || !texts[0].WhatsApp {
		t.Errorf("unexpected sent texts: %+v", texts)
	}

	console.Reset()

	if len(console.SentMails()) != 0 || len(console.SentTexts()) != 0 {
		t.Error("expected records to be cleared after Reset")
	}
}

// TestNewDispatcherConsole 测试 console 后端的分发器创建与收发.
func TestNewDispatcherConsole(t *testing.T) {
	cfg := &configs.NotifyConfig{
		Email: configs.EmailNotifyConfig{Backend: configs.NotifyBackendConsole},
		SMS:   configs.SMSNotifyConfig{Backend: configs.NotifyBackendConsole},
	}

	d, err := NewDispatcher(cfg, nil)
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	ctx := context.Background()

	if err := d.SendMail(ctx, &Mail{To: "bob@example.com", Subject: "s"}); err != nil {
		t.Errorf("SendMail failed: %v", err)
	}

	if err := d.SendText(ctx, &Text{To: "+14155552671", Body: "b"}); err != nil {
		t.Errorf("SendText failed: %v", err)
	}
}

// TestNewDispatcherUnsupportedBackend 测试未知后端返回错误.
func TestNewDispatcherUnsupportedBackend(t *testing.T) {
	cfg := &configs.NotifyConfig{
		Email: configs.EmailNotifyConfig{Backend: "smtp"},
		SMS:   configs.SMSNotifyConfig{Backend: configs.NotifyBackendConsole},
	}

	if _, err := NewDispatcher(cfg, nil); err == nil {
		t.Error("expected error for unsupported email backend, got nil")
	}
}

// TestDispatcherBreakerOpens 测试熔断器在连续失败后打开.
func TestDispatcherBreakerOpens(t *testing.T) {
	cb := &configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    30,
		MaxRequestsInHalf: 1,
	}

	d := &dispatcher{
		mail:        failingMailSender{},
		mailBreaker: newBreaker("test-mail", cb),
	}

	ctx := context.Background()

	// 前几次返回后端错误，随后熔断器打开快速失败
	for i := 0; i < 5; i++ {
		if err := d.SendMail(ctx, &Mail{To: "x@example.com"}); err == nil {
			t.Fatalf("attempt %d: expected error, got nil", i)
		}
	}
}

// failingMailSender 始终失败的邮件后端.
type failingMailSender struct{}

func (failingMailSender) SendMail(_ context.Context, _ *Mail) error {
	return context.DeadlineExceeded
}
