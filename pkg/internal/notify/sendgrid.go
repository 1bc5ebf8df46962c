package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// sendGridSender 通过 SendGrid API 发送邮件.
type sendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// newSendGridSender 创建 SendGrid 邮件后端.
func newSendGridSender(cfg *configs.EmailNotifyConfig) *sendGridSender {
	return &sendGridSender{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// SendMail 发送邮件.
func (s *sendGridSender) SendMail(ctx context.Context, m *Mail) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(m.ToName, m.To)
	message := mail.NewSingleEmail(from, m.Subject, to, m.PlainText, m.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send failed: status %d: %s", resp.StatusCode, resp.Body)
	}

	nlog.Logger().Debug().
		Str("to", m.To).
		Str("subject", m.Subject).
		Int("status", resp.StatusCode).
		Msg("email sent via sendgrid")

	return nil
}
