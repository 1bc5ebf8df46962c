package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/yeisme/studyvault/pkg/configs"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// twilioSender 通过 Twilio API 发送短信和 WhatsApp 消息.
type twilioSender struct {
	client       *twilio.RestClient
	from         string
	whatsAppFrom string
}

// newTwilioSender 创建 Twilio 短信/WhatsApp 后端.
func newTwilioSender(cfg *configs.SMSNotifyConfig) *twilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &twilioSender{
		client:       client,
		from:         cfg.From,
		whatsAppFrom: cfg.WhatsAppFrom,
	}
}

// SendText 发送短信或 WhatsApp 消息
// WhatsApp 消息的收发号码均需 whatsapp: 前缀.
func (t *twilioSender) SendText(_ context.Context, msg *Text) error {
	to := msg.To
	from := t.from

	if msg.WhatsApp {
		to = "whatsapp:" + msg.To
		from = "whatsapp:" + t.whatsAppFrom
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(msg.Body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}

	l := nlog.Logger().Debug().
		Str("to", msg.To).
		Bool("whatsapp", msg.WhatsApp)
	if resp.Sid != nil {
		l = l.Str("sid", *resp.Sid)
	}

	l.Msg("message sent via twilio")

	return nil
}
