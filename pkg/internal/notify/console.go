package notify

import (
	"context"
	"sync"

	nlog "github.com/yeisme/studyvault/pkg/log"
)

// ConsoleSender 开发模式后端：消息打印到日志并保留在内存，不真正外发.
type ConsoleSender struct {
	mu        sync.Mutex
	sentMails []Mail
	sentTexts []Text
}

// NewConsoleSender 创建 console 后端.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

// SendMail 打印并记录邮件.
func (c *ConsoleSender) SendMail(_ context.Context, m *Mail) error {
	c.mu.Lock()
	c.sentMails = append(c.sentMails, *m)
	c.mu.Unlock()

	nlog.Logger().Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("body", m.PlainText).
		Msg("[console] email")

	return nil
}

// SendText 打印并记录短信/WhatsApp 消息.
func (c *ConsoleSender) SendText(_ context.Context, t *Text) error {
	c.mu.Lock()
	c.sentTexts = append(c.sentTexts, *t)
	c.mu.Unlock()

	nlog.Logger().Info().
		Str("to", t.To).
		Bool("whatsapp", t.WhatsApp).
		Str("body", t.Body).
		Msg("[console] text")

	return nil
}

// SentMails 返回已记录的邮件副本.
func (c *ConsoleSender) SentMails() []Mail {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Mail, len(c.sentMails))
	copy(out, c.sentMails)

	return out
}

// SentTexts 返回已记录的短信/WhatsApp 消息副本.
func (c *ConsoleSender) SentTexts() []Text {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Text, len(c.sentTexts))
	copy(out, c.sentTexts)

	return out
}

// Reset 清空记录.
func (c *ConsoleSender) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sentMails = nil
	c.sentTexts = nil
}
